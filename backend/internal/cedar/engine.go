package cedar

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"
	"github.com/cedar-policy/cedar-go"
	"github.com/fsnotify/fsnotify"
)

//go:embed policies.cedar
var defaultPolicies []byte

// Response actions the policies decide on
const (
	ActionShowAlert = "show_alert"
	ActionOfferCall = "offer_call"
	ActionOfferText = "offer_text"
)

// AllActions lists every response action in presentation order
var AllActions = []string{ActionShowAlert, ActionOfferCall, ActionOfferText}

// Decision represents the result of a policy evaluation
type Decision string

const (
	ALLOW Decision = "ALLOW"
	DENY  Decision = "DENY"
)

// Obligation represents follow-on work the caller must perform
type Obligation struct {
	Type   string `json:"type"`             // "follow_up"
	Window string `json:"window,omitempty"` // duration for follow_up, e.g. "24h"
}

// EvaluationResult contains the decision for one action and any obligations
type EvaluationResult struct {
	Action      string       `json:"action"`
	Decision    Decision     `json:"decision"`
	Reason      string       `json:"reason"`
	PolicyIDs   []string     `json:"policy_ids,omitempty"`
	Obligations []Obligation `json:"obligations,omitempty"`
}

// Engine wraps the Cedar policy engine with hot-reloading support
type Engine struct {
	policySet     atomic.Pointer[cedar.PolicySet]
	policyVersion atomic.Pointer[string]
	PolicyPath    string

	watcher    *fsnotify.Watcher
	stopWatch  chan struct{}
	logger     *log.Logger
	reloadLock sync.Mutex
}

// PolicyVersion returns the current policy version (thread-safe)
func (e *Engine) PolicyVersion() string {
	v := e.policyVersion.Load()
	if v == nil {
		return ""
	}
	return *v
}

// NewEngine creates a new Engine. An empty policyPath loads the built-in policies.
func NewEngine(policyPath string) (*Engine, error) {
	return NewEngineWithLogger(policyPath, log.Default())
}

// NewEngineWithLogger creates a new Engine with a custom logger
func NewEngineWithLogger(policyPath string, logger *log.Logger) (*Engine, error) {
	e := &Engine{
		PolicyPath: policyPath,
		stopWatch:  make(chan struct{}),
		logger:     logger,
	}

	if err := e.reload(); err != nil {
		return nil, err
	}

	return e, nil
}

// StartHotReload enables fsnotify file watching for policy hot-reloading
func (e *Engine) StartHotReload() error {
	if e.PolicyPath == "" {
		return fmt.Errorf("hot reload requires a policy file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	e.watcher = watcher

	if err := watcher.Add(e.PolicyPath); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch policy file: %w", err)
	}

	go e.watchLoop()

	e.logf("[Cedar] Hot-reload enabled for: %s", e.PolicyPath)
	return nil
}

// StopHotReload stops the file watcher
func (e *Engine) StopHotReload() {
	if e.watcher != nil {
		close(e.stopWatch)
		e.watcher.Close()
		e.watcher = nil
	}
}

func (e *Engine) watchLoop() {
	// Debounce rapid saves
	var debounceTimer *time.Timer
	debounce := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounce, func() {
					if err := e.Reload(); err != nil {
						e.logf("[Cedar] Hot-reload FAILED: %v", err)
					}
				})
			}
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.logf("[Cedar] Watcher error: %v", err)
		case <-e.stopWatch:
			return
		}
	}
}

// Reload re-reads the policies. On failure the active set is kept.
func (e *Engine) Reload() error {
	e.reloadLock.Lock()
	defer e.reloadLock.Unlock()

	oldVersion := e.PolicyVersion()
	if err := e.reload(); err != nil {
		return err
	}
	e.logf("[Cedar] Reloaded policies: %s -> %s", oldVersion, e.PolicyVersion())
	return nil
}

// reload loads policies from the file, or the embedded defaults
func (e *Engine) reload() error {
	data := defaultPolicies
	if e.PolicyPath != "" {
		var err error
		data, err = os.ReadFile(e.PolicyPath)
		if err != nil {
			return fmt.Errorf("failed to read policy file: %w", err)
		}
	}

	ps, err := parsePolicies(data)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(data)
	version := hex.EncodeToString(hash[:])[:12]

	// Atomic swap
	e.policySet.Store(ps)
	e.policyVersion.Store(&version)

	return nil
}

// parsePolicies splits the document on semicolons and parses each policy
func parsePolicies(data []byte) (*cedar.PolicySet, error) {
	ps := cedar.NewPolicySet()

	chunks := strings.Split(string(data), ";")
	count := 0
	for i, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		var policy cedar.Policy
		if err := policy.UnmarshalCedar([]byte(chunk + ";")); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cedar policy part %d: %w", i, err)
		}

		ps.Add(cedar.PolicyID(fmt.Sprintf("policy%d", i)), &policy)
		count++
	}

	if count == 0 {
		return nil, fmt.Errorf("policy document contains no policies")
	}
	return ps, nil
}

// Evaluate decides whether action is permitted for the assessment
func (e *Engine) Evaluate(action string, a crisis.RiskAssessment) EvaluationResult {
	ps := e.policySet.Load()
	if ps == nil {
		return EvaluationResult{
			Action:   action,
			Decision: DENY,
			Reason:   "Policy engine not initialized",
		}
	}

	req := cedar.Request{
		Principal: cedar.NewEntityUID("User", "anonymous"),
		Action:    cedar.NewEntityUID("Action", cedar.String(action)),
		Resource:  cedar.NewEntityUID("Session", "current"),
		Context: cedar.NewRecord(cedar.RecordMap{
			"severity":      cedar.String(a.Severity),
			"is_crisis":     cedar.Boolean(a.IsCrisis),
			"risk_score":    cedar.Long(int64(a.RiskScore*100 + 0.5)),
			"confidence":    cedar.Long(int64(a.Confidence*100 + 0.5)),
			"keyword_count": cedar.Long(int64(len(a.Keywords))),
		}),
	}

	decision, diagnostics := cedar.Authorize(ps, cedar.EntityMap{}, req)

	result := EvaluationResult{Action: action}
	for _, reason := range diagnostics.Reasons {
		result.PolicyIDs = append(result.PolicyIDs, string(reason.PolicyID))

		p := ps.Get(reason.PolicyID)
		if p == nil {
			continue
		}
		annotations := p.Annotations()
		if typeVal, ok := annotations["obligation"]; ok {
			obs := Obligation{Type: string(typeVal)}
			if windowVal, ok := annotations["window"]; ok {
				obs.Window = strings.TrimSpace(string(windowVal))
			}
			result.Obligations = append(result.Obligations, obs)
		}
	}

	if decision == cedar.Allow {
		result.Decision = ALLOW
		result.Reason = "Policy allowed the action"
		return result
	}

	result.Decision = DENY
	result.Reason = "Policy denied the action"
	// Obligations only attach to permitted actions
	result.Obligations = nil
	return result
}

// Permitted evaluates every action and returns the allowed ones
func (e *Engine) Permitted(a crisis.RiskAssessment, actions ...string) []EvaluationResult {
	if len(actions) == 0 {
		actions = AllActions
	}

	var allowed []EvaluationResult
	for _, action := range actions {
		if res := e.Evaluate(action, a); res.Decision == ALLOW {
			allowed = append(allowed, res)
		}
	}
	return allowed
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}
