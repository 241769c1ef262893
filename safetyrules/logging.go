package safetyrules

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-safetyrules/inter"
)

// LogEntry names the operation or state field a log line is about.
type LogEntry string

const (
	LogConsensusState               LogEntry = "consensus_state"
	LogInitialize                   LogEntry = "initialize"
	LogConstructAndSignVote         LogEntry = "construct_and_sign_vote"
	LogSignProposal                 LogEntry = "sign_proposal"
	LogSignTimeout                  LogEntry = "sign_timeout"
	LogSignTimeoutWithQC            LogEntry = "sign_timeout_with_qc"
	LogConstructAndSignVoteTwoChain LogEntry = "construct_and_sign_vote_2chain"
	LogSignCommitVote               LogEntry = "sign_commit_vote"

	LogState             LogEntry = "state"
	LogEpoch             LogEntry = "epoch"
	LogLastVotedRound    LogEntry = "last_voted_round"
	LogPreferredRound    LogEntry = "preferred_round"
	LogOneChainRound     LogEntry = "one_chain_round"
	LogKeyReconciliation LogEntry = "key_reconciliation"
	LogWaypoint          LogEntry = "waypoint"
)

// LogEvent is the lifecycle stage a log line reports.
type LogEvent string

const (
	EventRequest LogEvent = "request"
	EventSuccess LogEvent = "success"
	EventError   LogEvent = "error"
	EventUpdate  LogEvent = "update"
)

// schema is a fluent builder over the structured fields every safety-rules
// log line shares: entry, event, and whichever state fields apply.
type schema struct {
	log    logrus.FieldLogger
	fields logrus.Fields
}

func newSchema(log logrus.FieldLogger, entry LogEntry, event LogEvent) *schema {
	return &schema{
		log: log,
		fields: logrus.Fields{
			"entry": string(entry),
			"event": string(event),
		},
	}
}

func (s *schema) author(author idx.ValidatorID) *schema {
	s.fields["author"] = author
	return s
}

func (s *schema) epoch(epoch inter.Epoch) *schema {
	s.fields["epoch"] = uint64(epoch)
	return s
}

func (s *schema) round(round inter.Round) *schema {
	s.fields["round"] = uint64(round)
	return s
}

func (s *schema) lastVotedRound(round inter.Round) *schema {
	s.fields["last_voted_round"] = uint64(round)
	return s
}

func (s *schema) preferredRound(round inter.Round) *schema {
	s.fields["preferred_round"] = uint64(round)
	return s
}

func (s *schema) oneChainRound(round inter.Round) *schema {
	s.fields["one_chain_round"] = uint64(round)
	return s
}

func (s *schema) waypoint(waypoint inter.Waypoint) *schema {
	s.fields["waypoint"] = waypoint.String()
	return s
}

func (s *schema) err(err error) *schema {
	s.fields["error"] = err.Error()
	return s
}

func (s *schema) debug(msg string) {
	s.log.WithFields(s.fields).Debug(msg)
}

func (s *schema) info(msg string) {
	s.log.WithFields(s.fields).Info(msg)
}

func (s *schema) error(msg string) {
	s.log.WithFields(s.fields).Error(msg)
}
