package mqtt

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"sensorpanorama/internal/config"
	"sensorpanorama/internal/modules/panorama/types"

	paho "github.com/eclipse/paho.mqtt.golang"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTelemetry(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	tests := []struct {
		name    string
		payload string
		want    types.Reading
		wantErr string
	}{
		{
			name:    "local timestamp",
			payload: `{"timestamp":"2024-03-01T12:30:00","temperature_c":21.5,"humidity_pct":40,"pressure_hpa":1001.2}`,
			want: types.Reading{
				Timestamp:   time.Date(2024, 3, 1, 12, 30, 0, 0, loc),
				Temperature: 21.5, Humidity: 40, Pressure: 1001.2,
			},
		},
		{
			name:    "zoned timestamp",
			payload: `{"timestamp":"2024-03-01T11:30:00Z","temperature_c":0,"humidity_pct":0,"pressure_hpa":0}`,
			want:    types.Reading{Timestamp: time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC)},
		},
		{name: "not json", payload: `hello`, wantErr: "decode telemetry"},
		{name: "missing timestamp", payload: `{"temperature_c":1,"humidity_pct":1,"pressure_hpa":1}`, wantErr: "timestamp is required"},
		{name: "bad timestamp", payload: `{"timestamp":"yesterday","temperature_c":1,"humidity_pct":1,"pressure_hpa":1}`, wantErr: "timestamp"},
		{name: "missing humidity", payload: `{"timestamp":"2024-03-01T12:30:00","temperature_c":1,"pressure_hpa":1}`, wantErr: "humidity_pct is required"},
		{name: "null pressure", payload: `{"timestamp":"2024-03-01T12:30:00","temperature_c":1,"humidity_pct":1,"pressure_hpa":null}`, wantErr: "pressure_hpa is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTelemetry([]byte(tt.payload), loc)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Timestamp.Equal(got.Timestamp), "timestamp %v, want %v", got.Timestamp, tt.want.Timestamp)
			assert.Equal(t, loc, got.Timestamp.Location())
			assert.Equal(t, tt.want.Temperature, got.Temperature)
			assert.Equal(t, tt.want.Humidity, got.Humidity)
			assert.Equal(t, tt.want.Pressure, got.Pressure)
		})
	}
}

func TestDecodeTelemetry_UTCReadingOnLocalDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got, err := DecodeTelemetry([]byte(`{"timestamp":"2024-01-31T23:30:00Z","temperature_c":1,"humidity_pct":2,"pressure_hpa":3}`), loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", got.Timestamp.Format(time.DateOnly))
}

func TestNewSubscriber_ClientID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewSubscriber(config.Config{MQTTBroker: "localhost", MQTTPort: 1883}, nil, logger)
	assert.True(t, strings.HasPrefix(s.ClientID(), "sensorpanorama-"))
	assert.Len(t, s.ClientID(), len("sensorpanorama-")+36)

	s = NewSubscriber(config.Config{MQTTBroker: "localhost", MQTTPort: 1883, MQTTClientID: "fixed"}, nil, logger)
	assert.Equal(t, "fixed", s.ClientID())
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func startBroker(t *testing.T) int {
	t.Helper()
	port := freePort(t)

	server := mochi.New(nil)
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))
	tcp := listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "t1",
		Address: net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
	})
	require.NoError(t, server.AddListener(tcp))
	require.NoError(t, server.Serve())
	t.Cleanup(func() { _ = server.Close() })
	return port
}

func TestSubscriber_ReceivesTelemetry(t *testing.T) {
	port := startBroker(t)
	cfg := config.Config{
		MQTTBroker: "127.0.0.1",
		MQTTPort:   port,
		MQTTTopic:  "sensors/panorama/telemetry",
		Location:   time.UTC,
	}

	var (
		mu  sync.Mutex
		got []types.Reading
	)
	sub := NewSubscriber(cfg, func(r types.Reading) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, sub.Connect(ctx))
	t.Cleanup(sub.Disconnect)

	require.Eventually(t, sub.IsConnected, 5*time.Second, 50*time.Millisecond)

	pubOpts := paho.NewClientOptions().
		AddBroker("tcp://127.0.0.1:" + strconv.Itoa(port)).
		SetClientID("publisher")
	pub := paho.NewClient(pubOpts)
	tok := pub.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	t.Cleanup(func() { pub.Disconnect(100) })

	payloads := []string{
		`{"timestamp":"2024-03-01T12:00:00Z","temperature_c":20,"humidity_pct":40,"pressure_hpa":1000}`,
		`{"timestamp":"2024-03-01T12:05:00Z","temperature_c":"warm"}`,
		`{"timestamp":"2024-03-01T12:10:00Z","temperature_c":22,"humidity_pct":42,"pressure_hpa":1002}`,
	}
	// The subscription is made in the connect callback and may lag behind
	// Connect returning, so keep publishing until the first reading arrives.
	require.Eventually(t, func() bool {
		pub.Publish(cfg.MQTTTopic, 1, false, payloads[0]).WaitTimeout(time.Second)
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 5*time.Second, 100*time.Millisecond)

	for _, p := range payloads[1:] {
		tok := pub.Publish(cfg.MQTTTopic, 1, false, p)
		require.True(t, tok.WaitTimeout(5*time.Second))
		require.NoError(t, tok.Error())
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, r := range got {
			if r.Temperature == 22 {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, r := range got {
		assert.Contains(t, []float64{20, 22}, r.Temperature, "invalid message must be dropped")
	}
}

func TestSubscriber_ConnectAfterDisconnect(t *testing.T) {
	sub := NewSubscriber(config.Config{MQTTBroker: "127.0.0.1", MQTTPort: 1}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sub.Disconnect()
	sub.Disconnect()
	assert.ErrorIs(t, sub.Connect(context.Background()), errSubscriberStopped)
}
