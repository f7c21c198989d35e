package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// AddressKind represents the variant of an Address.
type AddressKind uint8

const (
	// KindInvalid is the zero value. Sending to it is a programming error.
	KindInvalid AddressKind = iota
	// KindLoopback routes through the in-process loopback rings.
	KindLoopback
	// KindIPv4 is a unicast IPv4 endpoint.
	KindIPv4
	// KindBroadcast is the IPv4 limited broadcast address on a given port.
	KindBroadcast
)

// String returns a human-readable representation of the AddressKind.
func (k AddressKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindLoopback:
		return "loopback"
	case KindIPv4:
		return "ipv4"
	case KindBroadcast:
		return "broadcast"
	default:
		return fmt.Sprintf("AddressKind(%d)", uint8(k))
	}
}

// LoopbackHost is the literal ParseAddress recognizes as the loopback address.
const LoopbackHost = "localhost"

// WireSize is the encoded size of an IPv4 address: four octets and a port.
const WireSize = 6

var broadcastIP = [4]byte{255, 255, 255, 255}

// Address is a network endpoint. Values are immutable and compared with
// EqualFull or EqualBase rather than ==, since loopback addresses carry no
// meaningful IP or port.
type Address struct {
	Kind AddressKind
	IP   [4]byte
	// Port is in host byte order.
	Port uint16
}

// LoopbackAddress returns the in-process loopback address.
func LoopbackAddress() Address {
	return Address{Kind: KindLoopback}
}

// IPv4Address builds a unicast IPv4 address.
func IPv4Address(a, b, c, d byte, port uint16) Address {
	return Address{Kind: KindIPv4, IP: [4]byte{a, b, c, d}, Port: port}
}

// BroadcastAddress returns the limited broadcast address on port.
func BroadcastAddress(port uint16) Address {
	return Address{Kind: KindBroadcast, IP: broadcastIP, Port: port}
}

// AddressFromUDP converts a *net.UDPAddr carrying an IPv4 address.
func AddressFromUDP(addr *net.UDPAddr) (Address, error) {
	if addr == nil {
		return Address{}, fmt.Errorf("%w: nil udp address", ErrAddressParse)
	}
	ip4 := addr.IP.To4()
	if ip4 == nil {
		return Address{}, fmt.Errorf("%w: %s is not IPv4", ErrAddressParse, addr.IP)
	}
	a := Address{Kind: KindIPv4, Port: uint16(addr.Port)}
	copy(a.IP[:], ip4)
	return a, nil
}

// IsLoopback reports whether a is delivered in-process.
func (a Address) IsLoopback() bool {
	return a.Kind == KindLoopback
}

// UDPAddr returns the socket address for IPv4 and broadcast addresses, or nil.
func (a Address) UDPAddr() *net.UDPAddr {
	switch a.Kind {
	case KindIPv4, KindBroadcast:
		return &net.UDPAddr{IP: net.IPv4(a.IP[0], a.IP[1], a.IP[2], a.IP[3]), Port: int(a.Port)}
	default:
		return nil
	}
}

// String formats the address: "loopback" for loopback, "a.b.c.d:port" otherwise.
func (a Address) String() string {
	switch a.Kind {
	case KindLoopback:
		return "loopback"
	case KindIPv4, KindBroadcast:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.IP[0], a.IP[1], a.IP[2], a.IP[3], a.Port)
	default:
		return "invalid"
	}
}

// AppendWire appends the wire encoding of an IPv4 or broadcast address:
// four octets followed by the port in network byte order.
func (a Address) AppendWire(b []byte) []byte {
	b = append(b, a.IP[:]...)
	return binary.BigEndian.AppendUint16(b, a.Port)
}

// AddressFromWire decodes an address written by AppendWire.
func AddressFromWire(b []byte) (Address, error) {
	if len(b) < WireSize {
		return Address{}, fmt.Errorf("%w: wire address needs %d bytes, got %d", ErrAddressParse, WireSize, len(b))
	}
	a := Address{Kind: KindIPv4, Port: binary.BigEndian.Uint16(b[4:6])}
	copy(a.IP[:], b[:4])
	if a.IP == broadcastIP {
		a.Kind = KindBroadcast
	}
	return a, nil
}

// EqualFull reports whether a and b are the same endpoint, port included.
func EqualFull(a, b Address) bool {
	return EqualBase(a, b) && (a.Kind == KindLoopback || a.Port == b.Port)
}

// EqualBase reports whether a and b are the same host, ignoring the port.
func EqualBase(a, b Address) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindLoopback:
		return true
	case KindIPv4, KindBroadcast:
		return a.IP == b.IP
	default:
		return false
	}
}

// ParseAddress parses "localhost", "host" or "host:port". See ParseAddressContext.
func ParseAddress(text string) (Address, error) {
	return ParseAddressContext(context.Background(), text)
}

// ParseAddressContext parses "localhost", "host" or "host:port".
//
// A host starting with a decimal digit must be a dotted quad and is never
// resolved. Any other host is looked up and the first IPv4 result is used.
// A missing port yields 0.
func ParseAddressContext(ctx context.Context, text string) (Address, error) {
	if text == LoopbackHost {
		return LoopbackAddress(), nil
	}
	if text == "" {
		return Address{}, &AddressParseError{Text: text, Err: errEmptyAddress}
	}

	host, portText, hasPort := strings.Cut(text, ":")
	var port uint16
	if hasPort {
		p, err := strconv.ParseUint(portText, 10, 16)
		if err != nil {
			return Address{}, &AddressParseError{Text: text, Err: fmt.Errorf("bad port %q", portText)}
		}
		port = uint16(p)
	}
	if host == "" {
		return Address{}, &AddressParseError{Text: text, Err: errEmptyAddress}
	}

	if host[0] >= '0' && host[0] <= '9' {
		ip := net.ParseIP(host).To4()
		if ip == nil {
			return Address{}, &AddressParseError{Text: text, Err: fmt.Errorf("bad dotted quad %q", host)}
		}
		a := Address{Kind: KindIPv4, Port: port}
		copy(a.IP[:], ip)
		return a, nil
	}

	ips, err := lookupIPv4(ctx, host)
	if err != nil {
		return Address{}, &AddressParseError{Text: text, Err: err}
	}
	a := Address{Kind: KindIPv4, Port: port}
	copy(a.IP[:], ips)
	return a, nil
}

// lookupIPv4 is swapped in tests to avoid depending on DNS.
var lookupIPv4 = func(ctx context.Context, host string) (net.IP, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 address for %q", host)
}
