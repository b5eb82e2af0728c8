package models

import "time"

// ScanResult classifies the outcome of a gate scan.
type ScanResult string

const (
	ScanResultGranted ScanResult = "GRANTED"
	ScanResultDenied  ScanResult = "DENIED"
)

// ScanEvent is an append-only audit record of a gate presentation.
type ScanEvent struct {
	ID        string     `db:"id" json:"id"`
	PassID    string     `db:"pass_id" json:"pass_id"`
	RegNo     string     `db:"reg_no" json:"reg_no"`
	GateID    string     `db:"gate_id" json:"gate_id"`
	Result    ScanResult `db:"result" json:"result"`
	Detail    string     `db:"detail" json:"detail"`
	ScannedAt time.Time  `db:"scanned_at" json:"scanned_at"`
}
