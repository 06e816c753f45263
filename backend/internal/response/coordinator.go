package response

import (
	"context"
	"log"
	"time"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/audit"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/cedar"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/followup"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/metrics"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/resources"
)

// Classifier produces risk assessments and the per-category matches behind them
type Classifier interface {
	Classify(text string) crisis.RiskAssessment
	Match(text string) crisis.Hits
}

// PolicyEngine decides which response actions are permitted
type PolicyEngine interface {
	Permitted(a crisis.RiskAssessment, actions ...string) []cedar.EvaluationResult
	PolicyVersion() string
}

// ResourceDirectory lists emergency resources by channel
type ResourceDirectory interface {
	GetEmergencyResources(resourceType string) []resources.Resource
}

// EventLogger persists anonymized crisis events
type EventLogger interface {
	LogCrisisEvent(ctx context.Context, a crisis.RiskAssessment, p audit.Payload) error
}

// Scheduler creates follow-ups
type Scheduler interface {
	ScheduleFollowUp(req followup.Request) (*followup.FollowUp, error)
}

// Action is one permitted response shown to the person
type Action struct {
	Name        string               `json:"name"`
	Resources   []resources.Resource `json:"resources,omitempty"`
	Obligations []cedar.Obligation   `json:"obligations,omitempty"`
	PolicyIDs   []string             `json:"policy_ids,omitempty"`
}

// Plan is the coordinated response to one piece of text
type Plan struct {
	Assessment    crisis.RiskAssessment `json:"assessment"`
	Actions       []Action              `json:"actions"`
	FollowUp      *followup.FollowUp    `json:"follow_up,omitempty"`
	EventLogged   bool                  `json:"event_logged"`
	PolicyVersion string                `json:"policy_version,omitempty"`
}

// Coordinator turns an assessment into a response plan
type Coordinator struct {
	classifier Classifier
	engine     PolicyEngine
	directory  ResourceDirectory
	events     EventLogger
	followUps  Scheduler
	logger     *log.Logger
}

// NewCoordinator creates a Coordinator. events and followUps may be nil.
func NewCoordinator(
	classifier Classifier,
	engine PolicyEngine,
	directory ResourceDirectory,
	events EventLogger,
	followUps Scheduler,
	logger *log.Logger,
) *Coordinator {
	return &Coordinator{
		classifier: classifier,
		engine:     engine,
		directory:  directory,
		events:     events,
		followUps:  followUps,
		logger:     logger,
	}
}

// Respond classifies text and, for a crisis, assembles the permitted actions,
// logs the anonymized event and schedules a follow-up when policy asks for one.
func (c *Coordinator) Respond(ctx context.Context, text string, payload audit.Payload) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assessment := c.classifier.Classify(text)
	c.recordMetrics(text, assessment)

	plan := &Plan{
		Assessment:    assessment,
		Actions:       []Action{},
		PolicyVersion: c.engine.PolicyVersion(),
	}
	if !assessment.IsCrisis {
		return plan, nil
	}

	var obligations []cedar.Obligation
	for _, res := range c.engine.Permitted(assessment) {
		action := Action{
			Name:        res.Action,
			Obligations: res.Obligations,
			PolicyIDs:   res.PolicyIDs,
		}
		switch res.Action {
		case cedar.ActionOfferCall:
			action.Resources = c.directory.GetEmergencyResources(resources.TypeVoice)
		case cedar.ActionOfferText:
			action.Resources = c.directory.GetEmergencyResources(resources.TypeText)
		}
		plan.Actions = append(plan.Actions, action)
		obligations = append(obligations, res.Obligations...)
	}

	if c.events != nil {
		if payload.OriginalText == "" {
			payload.OriginalText = text
		}
		if err := c.events.LogCrisisEvent(ctx, assessment, payload); err != nil {
			c.logError("Crisis event not logged: %v", err)
		} else {
			plan.EventLogged = true
		}
	}

	if window, ok := followUpWindow(obligations); ok && c.followUps != nil {
		f, err := c.followUps.ScheduleFollowUp(followup.Request{
			CrisisTimestamp:     assessment.Timestamp,
			RecommendedFollowUp: window,
		})
		if err != nil {
			c.logError("Follow-up not scheduled: %v", err)
		} else {
			plan.FollowUp = f
		}
	}

	c.logInfo("Crisis response: severity=%s actions=%d", assessment.Severity, len(plan.Actions))
	return plan, nil
}

func (c *Coordinator) recordMetrics(text string, a crisis.RiskAssessment) {
	metrics.RecordAssessment(string(a.Severity))

	hits := c.classifier.Match(text)
	metrics.RecordKeywordHits(crisis.CategorySuicidal, len(hits.Suicidal))
	metrics.RecordKeywordHits(crisis.CategorySelfHarm, len(hits.SelfHarm))
	metrics.RecordKeywordHits(crisis.CategoryCrisis, len(hits.Crisis))
	metrics.RecordKeywordHits(crisis.CategoryUrgent, len(hits.Urgent))

	if crisis.Dampened(text) {
		metrics.RecordDampened()
	}
}

// followUpWindow picks the shortest follow_up window among the obligations
func followUpWindow(obligations []cedar.Obligation) (string, bool) {
	var (
		best     string
		bestDur  time.Duration
		hasValue bool
	)
	for _, o := range obligations {
		if o.Type != "follow_up" {
			continue
		}
		if o.Window == "" {
			if !hasValue {
				best, hasValue = "", true
			}
			continue
		}
		d, err := time.ParseDuration(o.Window)
		if err != nil {
			continue
		}
		if !hasValue || best == "" || d < bestDur {
			best, bestDur, hasValue = o.Window, d, true
		}
	}
	return best, hasValue
}

// logging helpers
func (c *Coordinator) logInfo(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf("[INFO] "+format, args...)
	}
}

func (c *Coordinator) logError(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf("[ERROR] "+format, args...)
	}
}
