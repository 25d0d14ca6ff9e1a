//
// listener.go
//
// Copyright (c) 2019 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"fmt"
	"net"
	"strconv"
)

// Listen starts a TCP listener on the given port (DefaultPort if
// port is zero), for the Evaluator's listen loop.
func Listen(port int) (net.Listener, error) {
	if port == 0 {
		port = DefaultPort
	}
	return net.Listen("tcp", fmt.Sprintf(":%d", port))
}

// Dial connects to the Evaluator at addr (host:port, port defaults
// to DefaultPort if omitted) and wraps the connection in a Conn.
func Dial(addr string) (*Conn, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// Accept wraps one accepted connection in a Conn.
func Accept(l net.Listener) (*Conn, error) {
	conn, err := l.Accept()
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}
