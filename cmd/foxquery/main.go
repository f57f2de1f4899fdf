// Command foxquery is a minimal DNS client for exercising a running
// foxdns relay (or any resolver) from the command line, useful for
// manually verifying the six end-to-end scenarios the relay is built
// against.
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/foxdns/foxdns/internal/dnswire"
)

func main() {
	var (
		server   = flag.String("server", "127.0.0.1:53", "DNS server HOST:PORT")
		name     = flag.String("name", "example.com", "query name")
		qtype    = flag.Int("qtype", int(dnswire.TypeA), "query type (numeric: A=1, AAAA=28)")
		timeout  = flag.Duration("timeout", 2*time.Second, "timeout")
		recvSize = flag.Int("recv-size", dnswire.MaxMessageSize, "UDP receive buffer size")
		quiet    = flag.Bool("quiet", false, "suppress output (exit status indicates success)")
	)
	flag.Parse()

	resp, err := queryUDP(*server, *name, dnswire.RecordType(*qtype), *timeout, *recvSize)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "foxquery: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		return
	}

	printResponse(resp)
}

func queryUDP(server, name string, qtype dnswire.RecordType, timeout time.Duration, recvSize int) ([]byte, error) {
	addr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req, err := buildQuery(name, qtype)
	if err != nil {
		return nil, err
	}

	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write(req); err != nil {
		return nil, err
	}

	buf := make([]byte, recvSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// buildQuery encodes a single-question query with RD set, matching the
// only shape of request this relay's wire codec is built to answer.
func buildQuery(name string, qtype dnswire.RecordType) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("query name required")
	}

	id := uint16(time.Now().UnixNano())
	if id == 0 {
		id = 0x1234
	}

	qname, err := dnswire.EncodeName(dnswire.NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("encode name: %w", err)
	}

	hdr := dnswire.Header{ID: id, Flags: dnswire.FlagRD, QDCount: 1}
	out := make([]byte, 0, dnswire.HeaderSize+len(qname)+4)
	out = append(out, hdr.Marshal()...)
	out = append(out, qname...)
	var tc [4]byte
	binary.BigEndian.PutUint16(tc[0:2], uint16(qtype))
	binary.BigEndian.PutUint16(tc[2:4], uint16(dnswire.ClassIN))
	out = append(out, tc[:]...)
	return out, nil
}

func printResponse(msg []byte) {
	hdr, err := dnswire.ParseHeader(msg)
	if err != nil {
		fmt.Printf("received %d bytes (unparseable: %v)\n", len(msg), err)
		return
	}

	fmt.Printf("id=%d rcode=%d ancount=%d\n", hdr.ID, hdr.RCode(), hdr.ANCount)

	off := dnswire.HeaderSize
	for i := 0; i < int(hdr.QDCount); i++ {
		if _, err := dnswire.ParseQuestion(msg, &off); err != nil {
			return
		}
	}

	for i := 0; i < int(hdr.ANCount); i++ {
		row, err := decodeAnswerRow(msg, &off)
		if err != nil {
			fmt.Printf("  (answer %d unparseable: %v)\n", i, err)
			return
		}
		fmt.Println("  " + row)
	}
}

// decodeAnswerRow decodes one resource record starting at *off, advancing
// it past the record, and formats it for display. It accepts any RR type
// (unlike the relay's own ExtractFirstAnswer, which only cares about a
// single A/AAAA match) since this is a diagnostic tool, not the relay.
func decodeAnswerRow(msg []byte, off *int) (string, error) {
	name, err := dnswire.DecodeName(msg, off)
	if err != nil {
		return "", err
	}
	if *off+10 > len(msg) {
		return "", fmt.Errorf("%w: truncated resource record", dnswire.ErrMalformed)
	}
	rrType := dnswire.RecordType(binary.BigEndian.Uint16(msg[*off : *off+2]))
	ttl := binary.BigEndian.Uint32(msg[*off+4 : *off+8])
	rdlen := int(binary.BigEndian.Uint16(msg[*off+8 : *off+10]))
	*off += 10
	if *off+rdlen > len(msg) {
		return "", fmt.Errorf("%w: truncated rdata", dnswire.ErrMalformed)
	}
	rdata := msg[*off : *off+rdlen]
	*off += rdlen

	if name == "" {
		name = "."
	}

	switch rrType {
	case dnswire.TypeA:
		if len(rdata) == 4 {
			return fmt.Sprintf("%s %d IN A %d.%d.%d.%d", name, ttl, rdata[0], rdata[1], rdata[2], rdata[3]), nil
		}
	case dnswire.TypeAAAA:
		if len(rdata) == 16 {
			return fmt.Sprintf("%s %d IN AAAA %s", name, ttl, net.IP(rdata).String()), nil
		}
	}
	return fmt.Sprintf("%s %d IN TYPE%d (%d bytes)", name, ttl, rrType, len(rdata)), nil
}
