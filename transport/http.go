// Package transport adapts the platform's byte-level network boundary to
// concrete pub-sub substrates (MQTT broker, plain HTTP push).
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/NVIDIA/rufi/cmn/nlog"
	"github.com/NVIDIA/rufi/platform"
	"github.com/NVIDIA/rufi/stats"
)

const InboxPath = "/rufi/inbox"

// HTTP is a broker-less push transport: every device listens on its inbox and
// publishing POSTs the wire message to each subscribed peer (the device's own
// inbox included - its export must reach its next round like anyone else's).
type HTTP struct {
	srv     *fasthttp.Server
	addr    string
	addrOf  func(id int32) string
	peers   map[int32]string
	mtx     sync.RWMutex
	updates chan platform.Update
	tracker *stats.Tracker
	self    int32
}

// interface guard
var _ platform.Network = (*HTTP)(nil)

// NewHTTP binds the inbox listener; addrOf maps a device id to its
// host:port.
func NewHTTP(self int32, bind string, addrOf func(int32) string, tracker *stats.Tracker) (*HTTP, error) {
	n := &HTTP{
		addrOf:  addrOf,
		peers:   make(map[int32]string),
		updates: make(chan platform.Update, updateChCap),
		tracker: tracker,
		self:    self,
	}
	n.srv = &fasthttp.Server{Handler: n.handle, Name: "rufi-httpnet"}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, errors.Wrapf(err, "httpnet: listen %s", bind)
	}
	n.addr = ln.Addr().String()
	go func() {
		if err := n.srv.Serve(ln); err != nil {
			nlog.Errorf("httpnet: serve: %v", err)
		}
	}()
	return n, nil
}

func (n *HTTP) Subscribe(ids []int32) error {
	n.mtx.Lock()
	for _, id := range ids {
		n.peers[id] = n.addrOf(id)
	}
	n.mtx.Unlock()
	return nil
}

func (n *HTTP) Send(payload []byte) error {
	n.mtx.RLock()
	addrs := make([]string, 0, len(n.peers))
	for _, addr := range n.peers {
		addrs = append(addrs, addr)
	}
	n.mtx.RUnlock()

	var firstErr error
	for _, addr := range addrs {
		if err := post(addr, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (n *HTTP) Updates() <-chan platform.Update { return n.updates }

// Addr is the bound inbox address (useful with a ":0" bind).
func (n *HTTP) Addr() string { return n.addr }

func (n *HTTP) Close() error { return n.srv.Shutdown() }

func post(addr string, payload []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.SetRequestURI("http://" + addr + InboxPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetBody(payload)
	if err := fasthttp.Do(req, resp); err != nil {
		return errors.Wrapf(err, "httpnet: post to %s", addr)
	}
	if resp.StatusCode() >= fasthttp.StatusBadRequest {
		return errors.Errorf("httpnet: post to %s: status %d", addr, resp.StatusCode())
	}
	return nil
}

func (n *HTTP) handle(ctx *fasthttp.RequestCtx) {
	if string(ctx.Path()) != InboxPath || !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}
	body := append([]byte(nil), ctx.PostBody()...)
	push(n.updates, platform.Update{Data: body}, n.tracker)
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}
