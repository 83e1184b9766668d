// Package group provides the multicast-capable UDP transport both roles run
// on. It carries no protocol logic; responder and prober build their loops on
// top of the Conn surface.
package group

import (
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv6"
)

// MaxDatagram bounds receive buffers. Probe payloads are far smaller.
const MaxDatagram = 512

// ErrTimeout reports that no datagram arrived within the wait bound.
var ErrTimeout = errors.New("receive timed out")

// Conn is the transport surface the responder and prober consume.
type Conn interface {
	SendUnicast(peer *net.UDPAddr, payload []byte) error
	SendMulticast(payload []byte) error
	Receive(timeout time.Duration) ([]byte, *net.UDPAddr, error)
	Close() error
}

// Socket is a UDP socket joined to one IPv6 multicast group.
type Socket struct {
	conn  *net.UDPConn
	pconn *ipv6.PacketConn
	group *net.UDPAddr
	ifi   *net.Interface
}

// Listen binds the group port and joins the multicast group on ifName (empty
// for the system default interface). This is the responder's socket: requests
// arrive on the group port and replies leave from it.
func Listen(group net.IP, port int, ifName string) (*Socket, error) {
	return open(group, port, port, ifName)
}

// Dial binds an ephemeral port and joins the group. This is the prober's
// socket: requests go out multicast to group:port, acknowledgments come back
// unicast to the ephemeral port.
func Dial(group net.IP, port int, ifName string) (*Socket, error) {
	return open(group, port, 0, ifName)
}

func open(group net.IP, groupPort, bindPort int, ifName string) (*Socket, error) {
	if group == nil || !group.IsMulticast() {
		return nil, fmt.Errorf("not a multicast group address: %v", group)
	}

	var ifi *net.Interface
	if ifName != "" {
		var err error
		ifi, err = net.InterfaceByName(ifName)
		if err != nil {
			return nil, fmt.Errorf("interface %q: %w", ifName, err)
		}
	}

	conn, err := net.ListenUDP("udp6", &net.UDPAddr{IP: net.IPv6unspecified, Port: bindPort})
	if err != nil {
		return nil, fmt.Errorf("bind port %d: %w", bindPort, err)
	}

	pconn := ipv6.NewPacketConn(conn)
	if err := pconn.JoinGroup(ifi, &net.UDPAddr{IP: group}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join group %s: %w", group, err)
	}
	// Loopback lets a responder and prober on the same host see each other.
	_ = pconn.SetMulticastLoopback(true)
	if ifi != nil {
		_ = pconn.SetMulticastInterface(ifi)
	}

	return &Socket{
		conn:  conn,
		pconn: pconn,
		group: &net.UDPAddr{IP: group, Port: groupPort},
		ifi:   ifi,
	}, nil
}

// LocalAddr returns the bound address of the socket.
func (s *Socket) LocalAddr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Group returns the multicast destination address.
func (s *Socket) Group() *net.UDPAddr {
	return s.group
}

// SendUnicast sends a datagram directly to peer.
func (s *Socket) SendUnicast(peer *net.UDPAddr, payload []byte) error {
	if _, err := s.conn.WriteToUDP(payload, peer); err != nil {
		return fmt.Errorf("send to %s: %w", peer, err)
	}
	return nil
}

// SendMulticast sends a datagram to the joined group.
func (s *Socket) SendMulticast(payload []byte) error {
	if _, err := s.conn.WriteToUDP(payload, s.group); err != nil {
		return fmt.Errorf("send to group %s: %w", s.group, err)
	}
	return nil
}

// Receive blocks until a datagram arrives, timeout elapses (ErrTimeout), or
// the socket fails terminally. The returned buffer is owned by the caller.
func (s *Socket) Receive(timeout time.Duration) ([]byte, *net.UDPAddr, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, err
	}

	buf := make([]byte, MaxDatagram)
	n, peer, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return nil, nil, ErrTimeout
		}
		return nil, nil, err
	}
	return buf[:n], peer, nil
}

// Close leaves the group and releases the socket.
func (s *Socket) Close() error {
	_ = s.pconn.LeaveGroup(s.ifi, &net.UDPAddr{IP: s.group.IP})
	return s.conn.Close()
}
