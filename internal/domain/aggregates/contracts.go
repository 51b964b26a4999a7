package aggregates

// Contract names an aggregate and the tables it alone may write.
// Read models (leaderboard, stats pages) query those tables through repos without locks.
type Contract struct {
	Name  string
	Owns  []string
	Notes string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) OwnsTable(table string) bool {
	for _, t := range c.Owns {
		if t == table {
			return true
		}
	}
	return false
}
