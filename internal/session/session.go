// Package session runs the generate, validate, execute loop for one question
// and turns it into a terminal outcome with a full attempt log.
package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/config"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/db"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/llm"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/util"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/validator"
)

// Executor runs one approved statement. *db.DB satisfies it.
type Executor interface {
	Query(ctx context.Context, query string, maxRows int) (*db.ResultSet, error)
}

// Session owns one question's retry budget. A session is single-use and not
// goroutine-safe; its pipeline holds a parser instance.
type Session struct {
	cfg        config.Config
	generator  llm.Generator
	classifier llm.Classifier
	prompts    *llm.PromptBuilder
	pipeline   *validator.Pipeline
	exec       Executor
}

// New builds a session. classifier may be nil, in which case the default
// phrase heuristic is used.
func New(cfg config.Config, gen llm.Generator, classifier llm.Classifier, prompts *llm.PromptBuilder, pipeline *validator.Pipeline, exec Executor) *Session {
	if classifier == nil {
		classifier = llm.HeuristicClassifier{}
	}
	return &Session{
		cfg:        cfg,
		generator:  gen,
		classifier: classifier,
		prompts:    prompts,
		pipeline:   pipeline,
		exec:       exec,
	}
}

// Run drives the loop until a terminal outcome. Every generation attempt,
// refusals included, consumes one unit of the MaxRetries budget. A non-nil
// error means an infrastructure failure; the returned result still carries
// the attempt log, with OutcomeAborted.
func (s *Session) Run(ctx context.Context, question string) (*Result, error) {
	result := &Result{Question: question, Started: time.Now()}
	defer func() { result.Elapsed = time.Since(result.Started) }()

	var prior *Attempt
	refusals := 0
	for seq := 1; seq <= s.cfg.MaxRetries; seq++ {
		if err := ctx.Err(); err != nil {
			result.Outcome = OutcomeCancelled
			return result, nil
		}
		attempt := Attempt{Seq: seq, Prompt: s.buildPrompt(question, seq, prior)}
		started := time.Now()

		reply, err := s.generate(ctx, attempt.Prompt)
		if err != nil {
			if ctx.Err() != nil {
				result.Outcome = OutcomeCancelled
				return result, nil
			}
			result.Outcome = OutcomeAborted
			return result, errors.Wrap(err, "generation failed")
		}
		attempt.Reply = reply

		cls := s.classifier.Classify(reply)
		attempt.Kind = cls.Kind
		if cls.Kind == llm.KindRefusal {
			attempt.Status = StatusRefused
			attempt.Elapsed = time.Since(started)
			result.Attempts = append(result.Attempts, attempt)
			refusals++
			util.Warnf("attempt %d refused: %s", seq, cls.Note)
			// A refusal is not a defective query; the next attempt starts
			// clean instead of asking the model to fix nothing.
			prior = nil
			continue
		}
		attempt.SQL = cls.SQL

		out := s.pipeline.Validate(cls.SQL)
		attempt.Validation = out
		if !out.OK {
			attempt.Status = StatusRejected
			attempt.Feedback = out.Describe()
			attempt.Elapsed = time.Since(started)
			result.Attempts = append(result.Attempts, attempt)
			util.Warnf("attempt %d rejected: %s", seq, out.Describe())
			prior = &result.Attempts[len(result.Attempts)-1]
			continue
		}
		attempt.CanonicalSQL = out.CanonicalSQL

		if err := ctx.Err(); err != nil {
			attempt.Elapsed = time.Since(started)
			result.Attempts = append(result.Attempts, attempt)
			result.Outcome = OutcomeCancelled
			return result, nil
		}

		rows, err := s.execute(ctx, out.CanonicalSQL)
		attempt.Elapsed = time.Since(started)
		if err != nil {
			if ctx.Err() != nil {
				result.Attempts = append(result.Attempts, attempt)
				result.Outcome = OutcomeCancelled
				return result, nil
			}
			if isInfraError(err) || !isSemanticExecError(err) {
				result.Attempts = append(result.Attempts, attempt)
				result.Outcome = OutcomeAborted
				return result, errors.Wrap(err, "execution failed")
			}
			attempt.Status = StatusExecError
			attempt.Feedback = execFeedback(err)
			result.Attempts = append(result.Attempts, attempt)
			util.Warnf("attempt %d failed at the database: %s", seq, attempt.Feedback)
			prior = &result.Attempts[len(result.Attempts)-1]
			continue
		}

		attempt.Status = StatusSucceeded
		result.Attempts = append(result.Attempts, attempt)
		result.Outcome = OutcomeSucceeded
		result.SQL = out.CanonicalSQL
		result.Rows = rows
		util.Infof("attempt %d succeeded, %d rows", seq, rows.RowCount())
		return result, nil
	}

	if refusals == len(result.Attempts) {
		result.Outcome = OutcomeRefused
	} else {
		result.Outcome = OutcomeExhausted
	}
	return result, nil
}

// buildPrompt picks the prompt shape: initial on the first attempt, a
// correction when there is a failed attempt to repair, and a fresh prompt
// after a refusal.
func (s *Session) buildPrompt(question string, seq int, prior *Attempt) string {
	switch {
	case prior != nil:
		return s.prompts.Correction(question, prior.SQL, prior.Feedback)
	case seq == 1:
		return s.prompts.Initial(question)
	default:
		return s.prompts.Fresh(question)
	}
}

func (s *Session) generate(ctx context.Context, prompt string) (string, error) {
	gctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.GenerationTimeoutMs)*time.Millisecond)
	defer cancel()
	reply, err := s.generator.Generate(gctx, prompt)
	if err != nil && gctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return "", errors.Wrapf(ErrGenerationTimeout, "after %dms", s.cfg.GenerationTimeoutMs)
	}
	return reply, err
}

func (s *Session) execute(ctx context.Context, query string) (*db.ResultSet, error) {
	qctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.StatementTimeoutMs)*time.Millisecond)
	defer cancel()
	rows, err := s.exec.Query(qctx, query, s.cfg.MaxResultRows)
	if err != nil && qctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return nil, errors.Wrapf(ErrExecutionTimeout, "after %dms", s.cfg.StatementTimeoutMs)
	}
	return rows, err
}
