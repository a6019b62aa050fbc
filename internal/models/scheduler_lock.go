package models

import "time"

// SchedulerLock is a coarse database lock so scheduled jobs (the monthly
// usage reset) run at most once per cycle across all server instances.
type SchedulerLock struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	LockName string    `gorm:"uniqueIndex:idx_lock_name_key;size:100;not null" json:"lock_name"`
	LockKey  string    `gorm:"uniqueIndex:idx_lock_name_key;size:100;not null" json:"lock_key"`
	LockedBy string    `gorm:"size:100" json:"locked_by"`
	LockedAt time.Time `json:"locked_at"`
}

func (SchedulerLock) TableName() string { return "scheduler_locks" }
