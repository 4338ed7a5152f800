package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/the-lightning-land/netconfig/connectivity"
	"github.com/the-lightning-land/netconfig/session"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second

	sessionEventType      = "session"
	connectivityEventType = "connectivity"
)

type wifiResponse struct {
	Ssid     string `json:"ssid"`
	Bssid    string `json:"bssid"`
	Channel  int    `json:"channel"`
	Rssi     int    `json:"rssi"`
	Security string `json:"security"`
}

type networkEvent struct {
	Type     string          `json:"type,omitempty"`
	State    string          `json:"state"`
	Status   string          `json:"status,omitempty"`
	Message  string          `json:"message,omitempty"`
	Ssid     string          `json:"ssid,omitempty"`
	Result   string          `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Networks []*wifiResponse `json:"networks,omitempty"`
}

type connectivityEvent struct {
	Type    string `json:"type"`
	Online  bool   `json:"online"`
	Address string `json:"address"`
}

type getNetworkResponse struct {
	networkEvent
	Address string `json:"address"`
	Online  bool   `json:"online"`
}

func newNetworkEvent(update *session.Update) networkEvent {
	event := networkEvent{
		State:   update.State.String(),
		Status:  update.Status,
		Message: update.Message,
		Ssid:    update.Ssid,
	}

	if update.Outcome != nil {
		event.Result = update.Outcome.Result.String()
	}

	if update.Err != nil {
		event.Error = update.Err.Error()
	}

	for _, w := range update.Networks {
		event.Networks = append(event.Networks, &wifiResponse{
			Ssid:     w.Name(),
			Bssid:    fmt.Sprintf("%x", w.Bssid),
			Channel:  w.Channel,
			Rssi:     w.Rssi,
			Security: w.Security.String(),
		})
	}

	return event
}

func (a *Api) handleGetNetwork() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := &getNetworkResponse{
			networkEvent: newNetworkEvent(a.session.Last()),
			Address:      "0.0.0.0",
		}

		if a.reporter != nil {
			res.Address = a.reporter.Address().String()
			res.Online = a.reporter.CurrentState() == connectivity.Online
		}

		a.jsonResponse(w, res, http.StatusOK)
	}
}

func (a *Api) handleGetNetworkEvents() http.HandlerFunc {
	upgrader := &websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.log.Errorf("Could not upgrade connection: %v", err)
			return
		}

		defer c.Close()

		client := a.broadcaster.Subscribe()
		defer client.Cancel()

		closed := make(chan struct{})

		// read pump
		go func() {
			defer close(closed)

			c.SetReadLimit(512)
			_ = c.SetReadDeadline(time.Now().Add(pongWait))
			c.SetPongHandler(func(string) error {
				return c.SetReadDeadline(time.Now().Add(pongWait))
			})

			for {
				_, _, err := c.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						a.log.Errorf("Unexpected websocket closure: %v", err)
					}
					return
				}
			}
		}()

		// write pump
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-client.Events:
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))

				if !ok {
					_ = c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}

				err := c.WriteJSON(event)
				if err != nil {
					return
				}
			case <-ticker.C:
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	}
}

// WatchConnectivity pushes a connectivity event to the websocket clients
// whenever the device goes online or offline, until ctx is done.
func (a *Api) WatchConnectivity(ctx context.Context) {
	if a.reporter == nil {
		return
	}

	state := a.reporter.CurrentState()

	for a.reporter.WaitForStateChange(ctx, state) {
		state = a.reporter.CurrentState()

		a.log.Debugf("Publishing connectivity change to %v", state)

		a.broadcaster.publish(&connectivityEvent{
			Type:    connectivityEventType,
			Online:  state == connectivity.Online,
			Address: a.reporter.Address().String(),
		})
	}
}
