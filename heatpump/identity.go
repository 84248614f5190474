package heatpump

import (
	"errors"
	"regexp"
	"strings"
)

// The bridge advertises itself with a name like "heatpump mac a1b2c3d4e5f6 kitchen".
var nameMACRe = regexp.MustCompile(`.*mac ([a-z0-9]*).*`)

var ErrMissingIdentity = errors.New("advertised name carries no usable mac token")

// Identity pins down one discovered device. Immutable after discovery.
type Identity struct {
	Host string
	Port int
	Name string
	MAC  string // canonical aa:bb:cc:dd:ee:ff
}

func NewIdentity(host string, port int, name string) (*Identity, error) {
	mac, err := ParseMAC(name)
	if err != nil {
		return nil, err
	}
	return &Identity{
		Host: host,
		Port: port,
		Name: name,
		MAC:  mac,
	}, nil
}

// NodeID is the MAC without separators, usable as an MQTT topic segment and as
// a Home Assistant object id.
func (id *Identity) NodeID() string {
	return strings.ReplaceAll(id.MAC, ":", "")
}

// ParseMAC recovers the MAC address embedded in an advertised device name and
// normalizes it to canonical colon-separated form. A name without a valid
// 12-digit hex token cannot identify a device, so setup must not proceed.
func ParseMAC(name string) (string, error) {
	m := nameMACRe.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return "", ErrMissingIdentity
	}
	token := m[1]
	if len(token) != 12 || !isHex(token) {
		return "", ErrMissingIdentity
	}
	pairs := make([]string, 0, 6)
	for i := 0; i < len(token); i += 2 {
		pairs = append(pairs, token[i:i+2])
	}
	return strings.Join(pairs, ":"), nil
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
