package websock_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/gonano/wallet/foundation/nano/block"
	"github.com/gonano/wallet/foundation/nano/websock"
	"github.com/gorilla/websocket"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func newTestAddress(t *testing.T) address.Address {
	t.Helper()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	addr, err := address.FromPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return addr
}

// =============================================================================

func Test_Confirmations(t *testing.T) {
	t.Log("Given the need to stream confirmations from a node.")
	{
		t.Logf("\tTest 0:\tWhen a send confirmation arrives after an ack frame.")
		{
			account := newTestAddress(t)
			var hash block.Hash
			if _, err := rand.Read(hash[:]); err != nil {
				t.Fatal(err)
			}

			var upgrader websocket.Upgrader
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				conn, err := upgrader.Upgrade(w, r, nil)
				if err != nil {
					t.Errorf("upgrading: %v", err)
					return
				}
				defer conn.Close()

				// Read the subscription command and check its shape.
				var sub struct {
					Action  string `json:"action"`
					Topic   string `json:"topic"`
					Options struct {
						Accounts []string `json:"accounts"`
					} `json:"options"`
				}
				if err := conn.ReadJSON(&sub); err != nil {
					t.Errorf("reading subscription: %v", err)
					return
				}
				if sub.Action != "subscribe" || sub.Topic != "confirmation" {
					t.Errorf("unexpected subscription: %+v", sub)
				}
				if len(sub.Options.Accounts) != 1 || sub.Options.Accounts[0] != account.String() {
					t.Errorf("unexpected account filter: %v", sub.Options.Accounts)
				}

				// An ack frame first, which the client must skip.
				conn.WriteJSON(map[string]string{"ack": "subscribe"})

				msg := fmt.Sprintf(`{"topic":"confirmation","message":{"account":%q,"amount":"250","hash":%q,"block":{"subtype":"send","link_as_account":%q}}}`,
					newTestAddress(t), hash, account)
				conn.WriteMessage(websocket.TextMessage, []byte(msg))

				// Hold the connection open until the client goes away.
				conn.ReadMessage()
			}))
			defer srv.Close()

			url := "ws" + strings.TrimPrefix(srv.URL, "http")
			client, err := websock.Dial(context.Background(), url)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to dial: %v", failed, err)
			}
			defer client.Close()

			if err := client.SubscribeConfirmations([]address.Address{account}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to subscribe: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to subscribe.", success)

			conf, err := client.Next()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould receive the confirmation: %v", failed, err)
			}

			if conf.Hash != hash {
				t.Fatalf("\t%s\tTest 0:\tShould decode the block hash.", failed)
			}
			if conf.Amount.Cmp(amount.FromUint64(250)) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould decode the amount: got %s.", failed, conf.Amount)
			}
			t.Logf("\t%s\tTest 0:\tShould skip the ack and decode the confirmation.", success)

			if !conf.SendTo(account) {
				t.Fatalf("\t%s\tTest 0:\tShould classify the send as destined for the account.", failed)
			}
			if conf.SendTo(newTestAddress(t)) {
				t.Fatalf("\t%s\tTest 0:\tShould not match a different account.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould classify the send destination.", success)
		}
	}
}
