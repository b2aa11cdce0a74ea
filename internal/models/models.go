package models

// All returns every persisted model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Client{},
		&AgentGroup{},
		&AgentGroupMember{},
		&Attendance{},
		&AttendanceTimeFrame{},
		&DailyReport{},
		&HelpRequest{},
		&Message{},
		&Activity{},
	}
}
