package models

import "time"

// Packet is the part of a captured frame the flow aggregator needs.
type Packet struct {
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	SrcPort   int
	DstPort   int
	Protocol  string // "TCP" or "UDP"
	Length    int
}
