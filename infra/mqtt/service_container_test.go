//go:build !no_containers

package mqtt_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremqtt "github.com/kilianp07/compstation/core/mqtt"
	"github.com/kilianp07/compstation/core/station"
	"github.com/kilianp07/compstation/infra/mqtt"
	"github.com/kilianp07/compstation/test/util"
)

func TestServiceOverMosquitto(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()
	broker, cleanup, err := util.StartMosquitto(ctx)
	require.NoError(t, err)
	defer cleanup()

	svc, err := mqtt.NewService(mqtt.Config{Broker: broker, ClientID: "compstation-it", TopicPrefix: "it"},
		util.LoadCatalog(t), station.NewResolver(nil, nil, nil))
	require.NoError(t, err)
	defer svc.Close()

	status := make(chan string, 4)
	responses := make(chan []byte, 4)
	cli := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("it-caller"))
	tok := cli.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	defer cli.Disconnect(100)

	tok = cli.Subscribe("it/status", 1, func(_ paho.Client, m paho.Message) { status <- string(m.Payload()) })
	require.True(t, tok.WaitTimeout(5*time.Second))
	tok = cli.Subscribe("it/response/+", 1, func(_ paho.Client, m paho.Message) { responses <- m.Payload() })
	require.True(t, tok.WaitTimeout(5*time.Second))

	select {
	case s := <-status:
		require.Equal(t, coremqtt.StatusOnline, s)
	case <-time.After(5 * time.Second):
		t.Fatal("service never announced itself")
	}

	payload := fmt.Sprintf(`{"request_id":"it-1","station_id":"compressorStation_1","configuration_id":"config_1","flow":1.5,"head":%g}`,
		18.17470547427045)
	tok = cli.Publish("it/request", 1, false, payload)
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	select {
	case raw := <-responses:
		var resp coremqtt.EvaluationResponse
		require.NoError(t, json.Unmarshal(raw, &resp))
		assert.Equal(t, "it-1", resp.RequestID)
		assert.True(t, resp.Feasible)
		require.NotNil(t, resp.Result)
		assert.Greater(t, resp.Result.EnergyRate, resp.Result.ShaftPower)
	case <-time.After(10 * time.Second):
		t.Fatal("no response received")
	}
}
