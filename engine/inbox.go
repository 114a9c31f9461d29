package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moxie-social/moxie/keyword"
	"github.com/moxie-social/moxie/persona"
	"github.com/moxie-social/moxie/platform"
)

// runInboxLoop triages mentions, comment replies, and direct messages. DMs
// from the operator can reconfigure the persona live or shut the agent down;
// everything else is a potential reply target.
func (e *Engine) runInboxLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.quit:
			return
		default:
		}

		ch, err := e.Client.StreamInbox(ctx, e.Config.SkipExisting)
		if err != nil {
			e.Logger.Error("inbox stream subscription failed, retrying", "err", err)
			streamRestarts.WithLabelValues("inbox").Inc()
			e.sleep(30 * time.Second)
			continue
		}
		e.Logger.Info("watching inbox")

		for item := range ch {
			select {
			case <-ctx.Done():
				return
			case <-e.quit:
				return
			default:
			}
			e.evaluateInboxItem(ctx, item)
		}

		e.Logger.Warn("inbox stream ended, resubscribing")
		streamRestarts.WithLabelValues("inbox").Inc()
	}
}

func (e *Engine) evaluateInboxItem(ctx context.Context, item *platform.InboxItem) {
	logger := e.Logger.With("item", item.ID, "kind", string(item.Kind))

	if item.Kind == platform.InboxDM {
		e.handleDirectMessage(ctx, logger, item)
		return
	}
	if item.Comment == nil {
		logger.Warn("inbox item carries no comment, marking read")
		e.markRead(ctx, logger, item)
		return
	}

	e.Status.CommentsSeen.Add(1)
	commentsSeen.Inc()
	defer e.markRead(ctx, logger, item)

	e.evaluateReplyTarget(ctx, logger, item.Comment)
}

func (e *Engine) evaluateReplyTarget(ctx context.Context, logger *slog.Logger, target *platform.Comment) {
	if target.Author == e.Username {
		return
	}
	if term := e.Blocklist.Match(target.Body); term != "" {
		logger.Info("target blocklisted", "term", term)
		return
	}
	if v := e.toxicityGate().Check(ctx, target.Body); !v.OK {
		logger.Info("target too toxic to engage", "reason", v.Reason)
		return
	}

	engaged, err := e.alreadyEngaged(ctx, target.ID)
	if err != nil {
		logger.Error("dedup check failed, skipping", "err", err)
		return
	}
	if engaged {
		return
	}

	parentText, parentIsRoot, parentAuthor, err := e.resolveParent(ctx, target)
	if err != nil {
		logger.Error("resolving parent failed, skipping", "err", err)
		return
	}
	if e.Config.FollowupOnly && parentAuthor != e.Username {
		return
	}

	if !e.shouldReply(ctx, logger, target, parentText, parentIsRoot) {
		return
	}

	tc, err := e.Threads.Build(ctx, target, e.Config.MaxLevels)
	if err != nil {
		logger.Error("building thread context failed", "err", err)
		return
	}
	e.replyWithContext(ctx, logger, target.ID, tc, e.replyChain(parentText))
}

// shouldReply decides engagement for a reply target. A forced-top-reply
// bypasses relevance when the parent is the root post; a trigger word in the
// target bumps the reply probability to the configured chance; otherwise
// relevance is scored against keywords extracted from the parent's own text,
// not the persona's static topic list.
func (e *Engine) shouldReply(ctx context.Context, logger *slog.Logger, target *platform.Comment, parentText string, parentIsRoot bool) bool {
	if parentIsRoot && e.Config.ForceTopReply {
		return true
	}

	body := strings.ToLower(target.Body)
	for _, w := range e.Config.TriggerWords {
		if strings.Contains(body, strings.ToLower(w)) {
			return e.randFloat() < e.Config.ReplyChance
		}
	}

	labels := ExtractTopicKeywords(parentText, 5)
	if len(labels) == 0 {
		return e.randFloat() < e.Config.ReplyChance
	}
	scores, err := e.Topics.ZeroShot(ctx, e.Config.TopicModel, target.Body, labels)
	if err != nil {
		logger.Info("parent-keyword relevance scoring failed, skipping", "err", err)
		return false
	}
	var sum float64
	for _, l := range labels {
		sum += scores[l]
	}
	mean := sum / float64(len(labels))
	if draw := e.randFloat(); draw >= mean {
		logger.Info("passing on reply target", "relevance", mean, "draw", draw)
		return false
	}
	return true
}

func (e *Engine) resolveParent(ctx context.Context, target *platform.Comment) (text string, isRoot bool, author string, err error) {
	if platform.IsRootID(target.ParentID) {
		sub, err := e.Client.Submission(ctx, target.ParentID)
		if err != nil {
			return "", false, "", err
		}
		return strings.TrimSpace(sub.Title + "\n" + sub.SelfText), true, sub.Author, nil
	}
	parent, err := e.Client.Comment(ctx, target.ParentID)
	if err != nil {
		return "", false, "", err
	}
	return parent.Body, false, parent.Author, nil
}

// handleDirectMessage recognizes the operator's kill phrase and persona
// reconfiguration command; all other DMs are read and dropped.
func (e *Engine) handleDirectMessage(ctx context.Context, logger *slog.Logger, item *platform.InboxItem) {
	defer e.markRead(ctx, logger, item)

	if item.Author != e.Config.Operator {
		return
	}
	body := strings.TrimSpace(item.Body)

	if e.Config.KillPhrase != "" && body == e.Config.KillPhrase {
		logger.Warn("kill phrase received, shutting down", "operator", item.Author)
		close(e.quit)
		return
	}

	if e.Config.ReconfigurePrefix != "" && strings.HasPrefix(body, e.Config.ReconfigurePrefix) {
		if err := e.reconfigurePersona(ctx, strings.TrimPrefix(body, e.Config.ReconfigurePrefix)); err != nil {
			logger.Warn("persona reconfiguration refused", "err", err)
			return
		}
		logger.Info("persona reconfigured", "operator", item.Author)
	}
}

// reconfigurePersona swaps in a new persona from "backstory || topic, topic"
// command text, after vetting the backstory through the safety gates. The
// swap is wholesale: readers never see mixed backstory and topics.
func (e *Engine) reconfigurePersona(ctx context.Context, spec string) error {
	backstory := spec
	var topics []string
	if idx := strings.Index(spec, "||"); idx > -1 {
		backstory = strings.TrimSpace(spec[:idx])
		for _, t := range strings.Split(spec[idx+2:], ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}
	backstory = strings.TrimSpace(backstory)
	if backstory == "" {
		return fmt.Errorf("empty backstory")
	}
	if v := e.safetyChain().Check(ctx, backstory); !v.OK {
		return fmt.Errorf("backstory failed %s gate: %s", v.Gate, v.Reason)
	}
	if len(topics) == 0 {
		topics = e.Persona.Load().Topics
	}
	e.Persona.Swap(persona.Snapshot{Backstory: backstory, Topics: topics})
	return nil
}

func (e *Engine) markRead(ctx context.Context, logger *slog.Logger, item *platform.InboxItem) {
	if err := e.Client.MarkRead(ctx, item.ID); err != nil {
		logger.Warn("marking inbox item read failed", "err", err)
	}
}

// stop words excluded when extracting topic keywords from parent text
var topicStopwords = map[string]bool{
	"about": true, "after": true, "again": true, "being": true, "could": true,
	"every": true, "first": true, "other": true, "their": true, "there": true,
	"these": true, "thing": true, "think": true, "this": true, "that": true,
	"what": true, "when": true, "where": true, "which": true, "while": true,
	"with": true, "would": true, "your": true, "have": true, "from": true,
	"they": true, "them": true, "then": true, "than": true, "some": true,
	"just": true, "like": true, "very": true, "really": true, "because": true,
}

// ExtractTopicKeywords pulls up to max candidate topic labels out of
// free-form text, preferring longer, non-stopword tokens in order of
// appearance.
func ExtractTopicKeywords(text string, max int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range keyword.Tokenize(text) {
		if len(tok) < 4 || topicStopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == max {
			break
		}
	}
	return out
}
