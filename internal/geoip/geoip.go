// Package geoip resolves autonomous system details for public addresses.
package geoip

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// ASNReader answers ASN lookups from a MaxMind GeoLite2-ASN database.
type ASNReader struct {
	reader *geoip2.Reader
}

// OpenASN opens the .mmdb file at path.
func OpenASN(path string) (*ASNReader, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open asn database: %w", err)
	}
	return &ASNReader{reader: r}, nil
}

// Close releases the database.
func (a *ASNReader) Close() error {
	if a == nil || a.reader == nil {
		return nil
	}
	return a.reader.Close()
}

// LookupASN returns the AS number and organisation owning addr.
func (a *ASNReader) LookupASN(addr netip.Addr) (uint, string, error) {
	if !addr.IsValid() {
		return 0, "", fmt.Errorf("invalid ip address")
	}
	record, err := a.reader.ASN(net.IP(addr.Unmap().AsSlice()))
	if err != nil {
		return 0, "", err
	}
	return uint(record.AutonomousSystemNumber), record.AutonomousSystemOrganization, nil
}
