package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/events"
	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/monitoring"
	coremqtt "github.com/kilianp07/compstation/core/mqtt"
	"github.com/kilianp07/compstation/core/station"
	"github.com/kilianp07/compstation/infra/gaslib"
	"github.com/kilianp07/compstation/infra/logger"
	"github.com/kilianp07/compstation/internal/eventbus"
)

// StationSource resolves station ids.
type StationSource interface {
	Station(id string) (*model.Station, error)
}

// Evaluator evaluates one station request.
type Evaluator interface {
	Evaluate(st *model.Station, req station.Request) (*station.Result, error)
}

// Service answers evaluation requests received on <prefix>/request with a
// JSON response on <prefix>/response/<request_id>.
type Service struct {
	cli        pahoClient
	cfg        Config
	prefix     string
	stations   StationSource
	eval       Evaluator
	bus        *eventbus.TypedBus[events.EvaluationEvent]
	archive    evallog.Store
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
	now        func() time.Time

	inflight sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes one EvaluationEvent per request on bus.
func WithEvents(bus *eventbus.TypedBus[events.EvaluationEvent]) Option {
	return func(s *Service) { s.bus = bus }
}

// WithArchive appends one record per evaluated request to store.
func WithArchive(store evallog.Store) Option {
	return func(s *Service) { s.archive = store }
}

// NewService connects to the broker and subscribes to the request topic.
func NewService(cfg Config, stations StationSource, eval Evaluator, opts ...Option) (*Service, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clientOpts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_service")
	s := &Service{
		cfg:        cfg,
		prefix:     cfg.TopicPrefix,
		stations:   stations,
		eval:       eval,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	requests := coremqtt.RequestTopic(s.prefix)
	clientOpts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected, serving %s", requests)
		if token := c.Subscribe(requests, cfg.qos("request"), s.onRequest); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
			return
		}
		if cfg.LWTTopic != "" {
			c.Publish(cfg.LWTTopic, cfg.LWTQoS, cfg.LWTRetain, coremqtt.StatusOnline)
		}
	}
	clientOpts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	clientOpts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(clientOpts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	s.cli = c
	return s, nil
}

func (s *Service) onRequest(_ paho.Client, msg paho.Message) {
	s.inflight.Add(1)
	defer s.inflight.Done()
	defer monitoring.Recover()

	resp := s.Handle(msg.Payload())
	if err := s.respond(resp); err != nil {
		s.logger.Errorf("reply to %s: %v", resp.RequestID, err)
	}
}

// Handle decodes and evaluates one request payload and returns the reply.
// Requests without an id are given one.
func (s *Service) Handle(payload []byte) coremqtt.EvaluationResponse {
	start := s.now()
	req, err := coremqtt.DecodeRequest(payload)
	if err != nil {
		s.logger.Warnf("rejecting request %q: %v", req.RequestID, err)
		return coremqtt.NewResponse(req, nil, err, s.now().Sub(start), s.now())
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	var res *station.Result
	st, err := s.stations.Station(req.StationID)
	if err != nil {
		err = fmt.Errorf("%w: %w", model.ErrInvalidRequest, err)
	} else {
		res, err = s.eval.Evaluate(st, req.Request)
	}
	d := s.now().Sub(start)
	if err != nil {
		s.logger.Infof("request %s on %s/%s failed: %v", req.RequestID, req.StationID, req.ConfigurationID, err)
		monitoring.CaptureEvaluationError(err, req.StationID, req.ConfigurationID)
	}
	if s.archive != nil {
		rec := evallog.NewRecord(req.RequestID, req.StationID, req.Request, res, err, d)
		if aerr := s.archive.Append(context.Background(), rec); aerr != nil {
			s.logger.Errorf("archive request %s: %v", req.RequestID, aerr)
		}
	}
	if s.bus != nil {
		s.bus.Publish(events.EvaluationEvent{
			RunID:     req.RequestID,
			StationID: req.StationID,
			Request:   req.Request,
			Result:    res,
			Err:       err,
			Duration:  d,
			Time:      s.now(),
		})
	}
	return coremqtt.NewResponse(req, res, err, d, s.now())
}

// Close stops accepting requests, waits for in-flight ones, marks the
// status topic offline and disconnects.
func (s *Service) Close() {
	if s.cli == nil || !s.cli.IsConnected() {
		return
	}
	s.cli.Unsubscribe(coremqtt.RequestTopic(s.prefix)).Wait()
	s.inflight.Wait()
	if s.cfg.LWTTopic != "" {
		s.cli.Publish(s.cfg.LWTTopic, s.cfg.LWTQoS, s.cfg.LWTRetain, coremqtt.StatusOffline).Wait()
	}
	s.cli.Disconnect(250)
}

var _ StationSource = (*gaslib.Catalog)(nil)
var _ Evaluator = (*station.Resolver)(nil)
