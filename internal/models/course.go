package models

// Course is a program of study; owned by the wider system, read-only here.
type Course struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
}
