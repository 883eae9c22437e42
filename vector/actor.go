package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/zeu5/vecenv/types"
)

// Actor drives a remote EnvPool hosted by an EnvServer. AsyncResetAll and
// Send issue the call on a background goroutine and store the result
// handle; Recv awaits that handle with no timeout. Scheduling a new unit
// before draining the previous handle overwrites it and the in-flight
// result is discarded. A transport failure panics: there is no retry and
// no way to recover the actor.
type Actor struct {
	addr   string
	client *http.Client
	handle chan []*types.StepResult

	// set when the backend spawned its own server
	owned *EnvServer
}

var _ Backend = &Actor{}

// NewActor is a BackendConstructor that hosts the EnvServer itself on a
// loopback listener. Use RemoteActor to attach to a server that is
// already running elsewhere.
func NewActor(binding types.Binding, n int) Backend {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(fmt.Errorf("vector: failed to start actor listener: %w", err))
	}
	srv := NewEnvServer(binding, n)
	go srv.Serve(ln)
	return &Actor{
		addr:   "http://" + ln.Addr().String(),
		client: &http.Client{},
		owned:  srv,
	}
}

// RemoteActor returns a constructor attaching to an EnvServer at addr,
// e.g. "http://host:port". The server must own n environment instances.
func RemoteActor(addr string) BackendConstructor {
	return func(types.Binding, int) Backend {
		return &Actor{
			addr:   addr,
			client: &http.Client{},
		}
	}
}

// call posts req to route and decodes the response into resp. Any
// transport or decoding failure is fatal.
func (a *Actor) call(route string, req any, resp any) {
	bs, err := json.Marshal(req)
	if err != nil {
		panic(fmt.Errorf("vector: actor request for %s: %w", route, err))
	}
	r, err := a.client.Post(a.addr+route, "application/json", bytes.NewReader(bs))
	if err != nil {
		panic(fmt.Errorf("vector: actor call %s: %w", route, err))
	}
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		panic(fmt.Errorf("vector: actor call %s: %w", route, err))
	}
	if r.StatusCode != http.StatusOK {
		panic(fmt.Errorf("vector: actor call %s: status %d: %s", route, r.StatusCode, string(body)))
	}
	if resp != nil {
		if err := json.Unmarshal(body, resp); err != nil {
			panic(fmt.Errorf("vector: actor call %s: %w", route, err))
		}
	}
}

func (a *Actor) AsyncResetAll(seed ...int64) {
	handle := make(chan []*types.StepResult, 1)
	a.handle = handle
	go func() {
		resp := resultsResponse{}
		a.call("/reset", resetRequest{Seed: seed}, &resp)
		handle <- resp.Results
	}()
}

func (a *Actor) Send(actions []*types.Actions) {
	handle := make(chan []*types.StepResult, 1)
	a.handle = handle
	go func() {
		resp := resultsResponse{}
		a.call("/step", stepRequest{Actions: actions}, &resp)
		handle <- resp.Results
	}()
}

func (a *Actor) Recv() []*types.StepResult {
	if a.handle == nil {
		panic("vector: recv without a scheduled reset or step")
	}
	out := <-a.handle
	a.handle = nil
	return out
}

func (a *Actor) Seed(seed int64) {
	a.call("/seed", seedRequest{Seed: seed}, nil)
}

func (a *Actor) PutAll(key string, value any) {
	a.call("/put", putRequest{Key: key, Value: value}, nil)
}

func (a *Actor) GetAll(key string) []any {
	resp := valuesResponse{}
	a.call("/get", getRequest{Key: key}, &resp)
	return resp.Values
}

func (a *Actor) ProfileAll() []Profile {
	resp := profilesResponse{}
	a.call("/profile", nil, &resp)
	return resp.Profiles
}

// Close closes the remote pool and, if this backend hosts its own server,
// shuts the server down.
func (a *Actor) Close() {
	a.call("/close", nil, nil)
	a.client.CloseIdleConnections()
	if a.owned != nil {
		a.owned.Shutdown(context.Background())
	}
}
