package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
monitor:
  schedule_time: "07:30"
  global_threshold: 12.5
  notification_cooldown_seconds: 600
  request_interval_seconds: 0
dormitories:
  - dorm_id: "1001"
    dorm_name: "A-101"
    dorm_type: "1"
  - dorm_id: "1002"
    enabled: false
    low_power_threshold: 5
  - dorm_id: "1003"
notifications:
  server_chan:
    enabled: true
    sendkey: "SCT123"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_Sample(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "07:30", cfg.GetScheduleTime())
	assert.Equal(t, 12.5, cfg.GetGlobalThreshold())
	assert.Equal(t, 10*time.Minute, cfg.GetCooldown())
	assert.Equal(t, time.Duration(0), cfg.GetRequestInterval())
	assert.Equal(t, 60*time.Second, cfg.GetPollInterval())
	assert.Equal(t, 5*time.Second, cfg.GetStopTimeout())
	assert.Equal(t, "http", cfg.GetReaderMode())
}

func TestLoad_MissingFileIsInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "monitor: [unterminated"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "19:00", cfg.GetScheduleTime())
	assert.Equal(t, 10.0, cfg.GetGlobalThreshold())
	assert.Equal(t, time.Hour, cfg.GetCooldown())
	assert.Equal(t, 2*time.Second, cfg.GetRequestInterval())
	assert.Equal(t, 15*time.Second, cfg.GetReaderTimeout())
	assert.Equal(t, ":9105", cfg.GetMetricsListen())
	assert.True(t, cfg.Monitor.Logging.LoggingEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "no rooms",
			cfg:  Config{},
			want: "no dormitories configured",
		},
		{
			name: "bad schedule time",
			cfg: Config{
				Monitor:     MonitorConfig{ScheduleTime: "25:99"},
				Dormitories: []DormitoryConfig{{ID: "1"}},
			},
			want: "not HH:MM",
		},
		{
			name: "duplicate ids",
			cfg:  Config{Dormitories: []DormitoryConfig{{ID: "1"}, {ID: "1"}}},
			want: "duplicate dorm_id",
		},
		{
			name: "server chan without key",
			cfg: Config{
				Dormitories:   []DormitoryConfig{{ID: "1"}},
				Notifications: NotificationConfig{ServerChan: ServerChanConfig{Enabled: true}},
			},
			want: "sendkey is empty",
		},
		{
			name: "webhook bad method",
			cfg: Config{
				Dormitories: []DormitoryConfig{{ID: "1"}},
				Notifications: NotificationConfig{
					CustomWebhook: WebhookConfig{Enabled: true, URL: "http://x", Method: "PUT"},
				},
			},
			want: "not GET or POST",
		},
		{
			name: "unknown reader mode",
			cfg: Config{
				Dormitories: []DormitoryConfig{{ID: "1"}},
				Reader:      ReaderConfig{Mode: "carrier-pigeon"},
			},
			want: "reader mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("19:05")
	require.NoError(t, err)
	assert.Equal(t, 19, h)
	assert.Equal(t, 5, m)

	_, _, err = ParseClock("7pm")
	assert.Error(t, err)
}

func TestRooms_CatalogFill(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	catalog, err := ParseCatalog(strings.NewReader("room_code,building,room_number,dorm_type\n1003,East 3,204,2\n1001,Ignored,000,9\n"))
	require.NoError(t, err)

	rooms := cfg.Rooms(catalog)
	require.Len(t, rooms, 3)

	assert.Equal(t, "1001", rooms[0].ID)
	assert.Equal(t, "A-101", rooms[0].Name, "config name wins over catalog")
	assert.Equal(t, "1", rooms[0].Type)
	assert.True(t, rooms[0].Enabled)
	assert.Nil(t, rooms[0].Threshold)

	assert.False(t, rooms[1].Enabled)
	require.NotNil(t, rooms[1].Threshold)
	assert.Equal(t, 5.0, *rooms[1].Threshold)
	assert.Equal(t, "1002", rooms[1].Name, "falls back to id")

	assert.Equal(t, "East 3-204", rooms[2].Name)
	assert.Equal(t, "2", rooms[2].Type)
}

func TestParseCatalog_MissingColumns(t *testing.T) {
	_, err := ParseCatalog(strings.NewReader("room_code,building\n1,A\n"))
	assert.Error(t, err)
}

func TestLoadCatalog_EmptyPath(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Empty(t, catalog)
}
