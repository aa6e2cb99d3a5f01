package redisserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/yndnr/minikv/internal/storage"
	"github.com/yndnr/minikv/internal/telemetry/metric"
)

// Reply texts sent after the "ERR " prefix.
const (
	msgUnknownCommand = "unknown command"
	msgRateLimited    = "rate limit exceeded"
)

// unknownCommandLabel is the metric label for unrecognised names, so that
// arbitrary client input never becomes a label value.
const unknownCommandLabel = "unknown"

type commandFunc func(h *CommandHandler, args [][]byte) Reply

type command struct {
	name  string
	arity int // number of arguments after the name
	fn    commandFunc
}

var commandTable = map[string]command{
	"SET":  {name: "SET", arity: 2, fn: (*CommandHandler).handleSet},
	"GET":  {name: "GET", arity: 1, fn: (*CommandHandler).handleGet},
	"DEL":  {name: "DEL", arity: 1, fn: (*CommandHandler).handleDel},
	"INCR": {name: "INCR", arity: 1, fn: (*CommandHandler).handleIncr},
}

// CommandHandler executes commands against the storage engine.
type CommandHandler struct {
	engine  *storage.Engine
	metrics *metric.Registry
}

// NewCommandHandler creates a new CommandHandler. metrics may be nil.
func NewCommandHandler(engine *storage.Engine, metrics *metric.Registry) *CommandHandler {
	return &CommandHandler{
		engine:  engine,
		metrics: metrics,
	}
}

// Handle executes one command and appends exactly one reply to dst.
// args[0] is the command name; len(args) must be at least 1.
func (h *CommandHandler) Handle(conn *Conn, dst []byte, args [][]byte) []byte {
	start := time.Now()

	cmd, ok := commandTable[string(args[0])]
	if !ok {
		h.metrics.RecordCommand(unknownCommandLabel, metric.ResultError, time.Since(start))
		return AppendReply(dst, Error(msgUnknownCommand))
	}

	if conn != nil && conn.limiter != nil && !conn.limiter.Allow() {
		h.metrics.RecordCommand(cmd.name, metric.ResultRateLimited, time.Since(start))
		return AppendReply(dst, Error(msgRateLimited))
	}

	if len(args)-1 != cmd.arity {
		h.metrics.RecordCommand(cmd.name, metric.ResultError, time.Since(start))
		return AppendReply(dst, Error(fmt.Sprintf("wrong number of arguments for '%s' command", cmd.name)))
	}

	reply := cmd.fn(h, args)

	result := metric.ResultOK
	if reply.Kind == ReplyError {
		result = metric.ResultError
	}
	h.metrics.RecordCommand(cmd.name, result, time.Since(start))

	return AppendReply(dst, reply)
}

// SET <key> <value>
func (h *CommandHandler) handleSet(args [][]byte) Reply {
	h.engine.Set(args[1], args[2])
	return SimpleString("OK")
}

// GET <key>
func (h *CommandHandler) handleGet(args [][]byte) Reply {
	v, ok, err := h.engine.Get(args[1])
	if err != nil {
		return errorReply(err)
	}
	if !ok {
		return NullBulk()
	}
	return Bulk(v)
}

// DEL <key>
func (h *CommandHandler) handleDel(args [][]byte) Reply {
	return Integer(h.engine.Del(args[1]))
}

// INCR <key>
func (h *CommandHandler) handleIncr(args [][]byte) Reply {
	n, err := h.engine.Incr(args[1])
	if err != nil {
		return errorReply(err)
	}
	return Integer(n)
}

// errorReply converts an engine error to an error reply.
func errorReply(err error) Reply {
	var se *storage.Error
	if errors.As(err, &se) && se.Code == storage.ErrWrongType.Code {
		return TypedError("WRONGTYPE", se.Message)
	}
	return Error(storage.ClientMessage(err))
}
