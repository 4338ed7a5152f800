package network

import "strings"

type StatusKind int

const (
	Unknown StatusKind = iota
	Idle
	Connecting
	WrongPassword
	NoAccessPoint
	ConnectFailed
	GotAddress
)

func (k StatusKind) String() string {
	switch k {
	case Unknown:
		return "UNKNOWN"
	case Idle:
		return "IDLE"
	case Connecting:
		return "CONNECTING"
	case WrongPassword:
		return "WRONG_PASSWORD"
	case NoAccessPoint:
		return "NO_AP_FOUND"
	case ConnectFailed:
		return "CONNECT_FAIL"
	case GotAddress:
		return "GOT_IP"
	default:
		return "INVALID STATUS"
	}
}

// StatusConstants maps symbolic status constant names, as exposed by the
// platform (STAT_IDLE, STAT_GOT_IP, ...), to raw status codes.
type StatusConstants map[string]int

// ESP32StatusConstants are the station status codes of the ESP32 wifi driver.
var ESP32StatusConstants = StatusConstants{
	"STAT_IDLE":              1000,
	"STAT_CONNECTING":        1001,
	"STAT_GOT_IP":            1010,
	"STAT_BEACON_TIMEOUT":    200,
	"STAT_NO_AP_FOUND":       201,
	"STAT_WRONG_PASSWORD":    202,
	"STAT_ASSOC_FAIL":        203,
	"STAT_HANDSHAKE_TIMEOUT": 204,
}

var kindsByName = map[string]StatusKind{
	"IDLE":              Idle,
	"CONNECTING":        Connecting,
	"WRONG_PASSWORD":    WrongPassword,
	"NO_AP_FOUND":       NoAccessPoint,
	"CONNECT_FAIL":      ConnectFailed,
	"ASSOC_FAIL":        ConnectFailed,
	"BEACON_TIMEOUT":    ConnectFailed,
	"HANDSHAKE_TIMEOUT": ConnectFailed,
	"GOT_IP":            GotAddress,
}

// Classifier turns raw status codes into a StatusKind. It never fails:
// codes it does not know classify as Unknown.
type Classifier struct {
	kinds map[int]StatusKind
	names map[int]string
}

func NewClassifier(constants StatusConstants) *Classifier {
	c := &Classifier{
		kinds: make(map[int]StatusKind, len(constants)),
		names: make(map[int]string, len(constants)),
	}

	for constant, raw := range constants {
		name := strings.TrimPrefix(constant, "STAT_")

		c.names[raw] = name
		c.kinds[raw] = kindsByName[name]
	}

	return c
}

func (c *Classifier) Classify(raw int) StatusKind {
	return c.kinds[raw]
}

// Name returns the platform's symbolic name for a raw code, or the name of
// the Unknown kind.
func (c *Classifier) Name(raw int) string {
	if name, ok := c.names[raw]; ok {
		return name
	}

	return Unknown.String()
}
