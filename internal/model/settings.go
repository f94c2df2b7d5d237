package model

import "time"

type Setting struct {
	AccountID string    `json:"account_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
