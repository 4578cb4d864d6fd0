package models

import "time"

// RunReport summarizes one collection run for the optional email digest.
type RunReport struct {
	Date    time.Time      `json:"date"`
	Topic   string         `json:"topic"`
	Videos  []*VideoRecord `json:"videos"`
	Metrics string         `json:"metrics"`
}
