package models

const (
	STATUS_UP         = "UP"
	STATUS_DEGRADED   = "DEGRADED"
	STATUS_DOWN       = "DOWN"
	HEALTH_ISSUE_NONE = "None reported"
	//
	BACKEND_API    = "RoadWatch Backend API"
	LIVE_FEED      = "Live Feed"
	SNAPSHOT_CACHE = "Redis Snapshot Cache"
) // .const
