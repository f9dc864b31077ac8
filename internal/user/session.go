package user

// Session is the identity active in one client session. Exactly one variant
// is ever active, so a session cannot be customer and admin at once.
type Session interface {
	Role() Role
	Current() *User
	isSession()
}

type Anonymous struct{}

type CustomerSession struct{ User User }

type WorkerSession struct{ User User }

type AdminSession struct{ User User }

func (Anonymous) Role() Role     { return "" }
func (Anonymous) Current() *User { return nil }
func (Anonymous) isSession()     {}

func (s CustomerSession) Role() Role     { return RoleCustomer }
func (s CustomerSession) Current() *User { u := s.User; return &u }
func (CustomerSession) isSession()       {}

func (s WorkerSession) Role() Role     { return RoleWorker }
func (s WorkerSession) Current() *User { u := s.User; return &u }
func (WorkerSession) isSession()       {}

func (s AdminSession) Role() Role     { return RoleAdmin }
func (s AdminSession) Current() *User { u := s.User; return &u }
func (AdminSession) isSession()       {}

// NewSession picks the variant matching u's role. A nil user or an unknown
// role yields Anonymous.
func NewSession(u *User) Session {
	if u == nil {
		return Anonymous{}
	}
	switch u.Role {
	case RoleCustomer:
		return CustomerSession{User: *u}
	case RoleWorker:
		return WorkerSession{User: *u}
	case RoleAdmin:
		return AdminSession{User: *u}
	}
	return Anonymous{}
}

func IsAnonymous(s Session) bool {
	if s == nil {
		return true
	}
	_, ok := s.(Anonymous)
	return ok
}
