package monitor

import "time"

type Status struct {
	PostgreSQL  bool      `json:"postgresql"`
	Redis       bool      `json:"redis"`
	Backlog     bool      `json:"backlog"`
	BacklogSize int       `json:"backlog_size"`
	LastCheck   time.Time `json:"last_check"`
}
