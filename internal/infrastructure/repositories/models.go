package repositories

// Models lists every table owned by the repositories, in migration order.
func Models() []interface{} {
	return []interface{}{
		&DBUser{},
		&DBOTP{},
		&DBSession{},
		&DBSessionParticipant{},
		&DBPayment{},
	}
}
