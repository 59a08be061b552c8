// Traffic generator: replays a YAML browsing scenario against a running
// server so the dashboard has realistic data to aggregate.
package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.yaml
var defaultScenario []byte

// Scenario describes the simulated site and browsing behavior.
type Scenario struct {
	Site                 string   `yaml:"site"`
	Pages                []string `yaml:"pages"`
	Referrers            []string `yaml:"referrers"`
	UserAgents           []string `yaml:"user_agents"`
	MinPagesPerSession   int      `yaml:"min_pages_per_session"`
	MaxPagesPerSession   int      `yaml:"max_pages_per_session"`
	ClickRate            float64  `yaml:"click_rate"`
	MinEngagementSeconds int      `yaml:"min_engagement_seconds"`
	MaxEngagementSeconds int      `yaml:"max_engagement_seconds"`
}

func (s *Scenario) validate() error {
	if len(s.Pages) == 0 {
		return fmt.Errorf("scenario has no pages")
	}
	if len(s.UserAgents) == 0 {
		return fmt.Errorf("scenario has no user agents")
	}
	if s.MinPagesPerSession < 1 || s.MaxPagesPerSession < s.MinPagesPerSession {
		return fmt.Errorf("invalid pages-per-session range [%d, %d]", s.MinPagesPerSession, s.MaxPagesPerSession)
	}
	return nil
}

type eventPayload struct {
	EventType    string                 `json:"event_type"`
	URL          string                 `json:"url"`
	Referrer     string                 `json:"referrer"`
	Timestamp    time.Time              `json:"timestamp"`
	SessionID    string                 `json:"session_id"`
	VisitorID    string                 `json:"visitor_id"`
	ScreenWidth  int                    `json:"screen_width"`
	ScreenHeight int                    `json:"screen_height"`
	Language     string                 `json:"language"`
	UserAgent    string                 `json:"user_agent"`
	Data         map[string]interface{} `json:"data,omitempty"`
}

type simulator struct {
	endpoint string
	scenario *Scenario
	client   *http.Client
	rng      *rand.Rand
	log      *logrus.Logger
	sent     int
	failed   int
}

func main() {
	endpoint := flag.String("endpoint", "http://localhost:3000/x/api/v1/events", "event ingestion endpoint")
	visitors := flag.Int("visitors", 50, "number of visitors to simulate")
	scenarioPath := flag.String("scenario", "", "path to a scenario YAML file (embedded default when empty)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	raw := defaultScenario
	if *scenarioPath != "" {
		var err error
		raw, err = os.ReadFile(*scenarioPath)
		if err != nil {
			log.WithError(err).Fatal("failed to read scenario file")
		}
	}

	var scenario Scenario
	if err := yaml.Unmarshal(raw, &scenario); err != nil {
		log.WithError(err).Fatal("failed to parse scenario")
	}
	if err := scenario.validate(); err != nil {
		log.WithError(err).Fatal("invalid scenario")
	}

	sim := &simulator{
		endpoint: *endpoint,
		scenario: &scenario,
		client:   &http.Client{Timeout: 10 * time.Second},
		rng:      rand.New(rand.NewSource(*seed)),
		log:      log,
	}

	log.WithFields(logrus.Fields{
		"endpoint": *endpoint,
		"visitors": *visitors,
		"seed":     *seed,
	}).Info("starting simulation")

	for i := 0; i < *visitors; i++ {
		sim.runVisitor()
	}

	log.WithFields(logrus.Fields{
		"sent":   sim.sent,
		"failed": sim.failed,
	}).Info("simulation finished")

	if sim.failed > 0 {
		os.Exit(1)
	}
}

// runVisitor simulates one visitor's browsing session: an entry pageview with
// an external referrer, a chain of internal pageviews, occasional clicks on
// course pages, and an engagement event closing each page visit.
func (s *simulator) runVisitor() {
	visitorID := uuid.NewString()
	sessionID := uuid.NewString()
	userAgent := s.pick(s.scenario.UserAgents)
	referrer := s.pick(s.scenario.Referrers)

	pageCount := s.scenario.MinPagesPerSession +
		s.rng.Intn(s.scenario.MaxPagesPerSession-s.scenario.MinPagesPerSession+1)

	// Sessions start at a random point in the last 24 hours so the hourly
	// trend has spread.
	at := time.Now().UTC().Add(-time.Duration(s.rng.Intn(24*60)) * time.Minute)

	previousURL := ""
	for i := 0; i < pageCount; i++ {
		page := s.pick(s.scenario.Pages)
		pageURL := strings.TrimSuffix(s.scenario.Site, "/") + page

		ref := referrer
		if i > 0 {
			ref = previousURL
		}

		s.send(eventPayload{
			EventType:    "pageview",
			URL:          pageURL,
			Referrer:     ref,
			Timestamp:    at,
			SessionID:    sessionID,
			VisitorID:    visitorID,
			ScreenWidth:  1920,
			ScreenHeight: 1080,
			Language:     "en-US",
			UserAgent:    userAgent,
		})

		if strings.Contains(page, "/course/") && s.rng.Float64() < s.scenario.ClickRate {
			s.send(eventPayload{
				EventType: "click",
				URL:       pageURL,
				Referrer:  ref,
				Timestamp: at.Add(5 * time.Second),
				SessionID: sessionID,
				VisitorID: visitorID,
				UserAgent: userAgent,
				Data: map[string]interface{}{
					"element":   "enroll_button",
					"course_id": strings.Trim(strings.TrimPrefix(page, "/course/"), "/"),
				},
			})
		}

		dwell := s.scenario.MinEngagementSeconds +
			s.rng.Intn(s.scenario.MaxEngagementSeconds-s.scenario.MinEngagementSeconds+1)
		s.send(eventPayload{
			EventType: "user_engagement",
			URL:       pageURL,
			Timestamp: at.Add(time.Duration(dwell) * time.Second),
			SessionID: sessionID,
			VisitorID: visitorID,
			UserAgent: userAgent,
			Data: map[string]interface{}{
				"duration_seconds": dwell,
			},
		})

		previousURL = pageURL
		at = at.Add(time.Duration(dwell+s.rng.Intn(30)) * time.Second)
	}
}

func (s *simulator) pick(values []string) string {
	return values[s.rng.Intn(len(values))]
}

func (s *simulator) send(payload eventPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.failed++
		s.log.WithError(err).Error("failed to encode event")
		return
	}

	resp, err := s.client.Post(s.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		s.failed++
		s.log.WithError(err).Error("failed to post event")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.failed++
		s.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"type":   payload.EventType,
		}).Error("server rejected event")
		return
	}

	s.sent++
	s.log.WithFields(logrus.Fields{
		"type": payload.EventType,
		"url":  payload.URL,
	}).Debug("event sent")
}
