// Package capture turns a packet capture file into bidirectional flow
// summaries that can seed the dashboard inputs.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"flowguard/internal/models"
)

// FlowKey identifies a flow from its originator's point of view.
type FlowKey struct {
	OrigIP   string
	RespIP   string
	OrigPort int
	RespPort int
	Protocol string
}

func (k FlowKey) reverse() FlowKey {
	return FlowKey{
		OrigIP:   k.RespIP,
		RespIP:   k.OrigIP,
		OrigPort: k.RespPort,
		RespPort: k.OrigPort,
		Protocol: k.Protocol,
	}
}

func (k FlowKey) String() string {
	return fmt.Sprintf("%s %s:%d -> %s:%d", k.Protocol, k.OrigIP, k.OrigPort, k.RespIP, k.RespPort)
}

// Flow aggregates the packets exchanged between two endpoints. The
// originator is whoever sent the first packet seen.
type Flow struct {
	Key        FlowKey
	First      time.Time
	Last       time.Time
	FwdPackets int
	BwdPackets int
	FwdBytes   int
	BwdBytes   int
}

// Packets returns the packet count in both directions.
func (f Flow) Packets() int { return f.FwdPackets + f.BwdPackets }

// Duration is the time between the first and last packet.
func (f Flow) Duration() time.Duration { return f.Last.Sub(f.First) }

// Inputs maps the flow onto the dashboard's input fields.
func (f Flow) Inputs() map[string]float64 {
	return map[string]float64{
		"id.orig_p":     float64(f.Key.OrigPort),
		"id.resp_p":     float64(f.Key.RespPort),
		"flow_duration": f.Duration().Seconds(),
		"fwd_pkts_tot":  float64(f.FwdPackets),
		"bwd_pkts_tot":  float64(f.BwdPackets),
	}
}

// ReadFile reads flows from the pcap file at path.
func ReadFile(path string) ([]Flow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer file.Close()
	return ReadFlows(file)
}

// ReadFlows reads a pcap stream and returns its TCP and UDP flows in
// order of first appearance. Frames that are not IP over TCP or UDP are
// skipped.
func ReadFlows(r io.Reader) ([]Flow, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read capture header: %w", err)
	}

	index := make(map[FlowKey]int)
	var flows []Flow

	for n := 1; ; n++ {
		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read packet %d: %w", n, err)
		}

		pkt, ok := decodePacket(data, reader.LinkType(), ci.Timestamp)
		if !ok {
			continue
		}

		key := FlowKey{
			OrigIP:   pkt.SrcIP,
			RespIP:   pkt.DstIP,
			OrigPort: pkt.SrcPort,
			RespPort: pkt.DstPort,
			Protocol: pkt.Protocol,
		}

		if i, ok := index[key]; ok {
			f := &flows[i]
			f.FwdPackets++
			f.FwdBytes += pkt.Length
			f.touch(pkt.Timestamp)
			continue
		}
		if i, ok := index[key.reverse()]; ok {
			f := &flows[i]
			f.BwdPackets++
			f.BwdBytes += pkt.Length
			f.touch(pkt.Timestamp)
			continue
		}

		index[key] = len(flows)
		flows = append(flows, Flow{
			Key:        key,
			First:      pkt.Timestamp,
			Last:       pkt.Timestamp,
			FwdPackets: 1,
			FwdBytes:   pkt.Length,
		})
	}

	return flows, nil
}

func (f *Flow) touch(ts time.Time) {
	if ts.Before(f.First) {
		f.First = ts
	}
	if ts.After(f.Last) {
		f.Last = ts
	}
}

// Busiest returns the flow with the most packets. Ties go to the flow
// seen first.
func Busiest(flows []Flow) (Flow, bool) {
	if len(flows) == 0 {
		return Flow{}, false
	}
	best := 0
	for i := 1; i < len(flows); i++ {
		if flows[i].Packets() > flows[best].Packets() {
			best = i
		}
	}
	return flows[best], true
}

func decodePacket(data []byte, linkType layers.LinkType, ts time.Time) (models.Packet, bool) {
	packet := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	p := models.Packet{Timestamp: ts, Length: len(data)}

	switch ip := packet.NetworkLayer().(type) {
	case *layers.IPv4:
		p.SrcIP = ip.SrcIP.String()
		p.DstIP = ip.DstIP.String()
	case *layers.IPv6:
		p.SrcIP = ip.SrcIP.String()
		p.DstIP = ip.DstIP.String()
	default:
		return p, false
	}

	switch tl := packet.TransportLayer().(type) {
	case *layers.TCP:
		p.Protocol = "TCP"
		p.SrcPort = int(tl.SrcPort)
		p.DstPort = int(tl.DstPort)
	case *layers.UDP:
		p.Protocol = "UDP"
		p.SrcPort = int(tl.SrcPort)
		p.DstPort = int(tl.DstPort)
	default:
		return p, false
	}

	return p, true
}
