package redisserver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Protocol limits to prevent DoS attacks.
const (
	// DefaultMaxArrayLen limits the number of elements in a request array.
	DefaultMaxArrayLen = 1024

	// DefaultMaxBulkLen limits the size of a single bulk string (512MB, as Redis).
	DefaultMaxBulkLen = 512 * 1024 * 1024

	// DefaultMaxLineLen limits the length of a "*<n>" or "$<n>" header line.
	DefaultMaxLineLen = 64
)

var (
	// ErrNeedMoreData means the buffer holds an incomplete frame.
	// It is not a failure: read more bytes and decode again.
	ErrNeedMoreData = errors.New("resp: need more data")

	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

var crlf = []byte("\r\n")

// Decoder decodes request frames from a byte buffer.
//
// A request is an array of bulk strings:
//
//	*<argc>\r\n $<len>\r\n<bytes>\r\n ...
//
// Decode is re-entrant. It looks at most at one frame per call and never
// retains buf, so the caller can append to buf and call again after
// ErrNeedMoreData.
type Decoder struct {
	MaxArrayLen int
	MaxBulkLen  int
	MaxLineLen  int
}

var defaultDecoder = Decoder{
	MaxArrayLen: DefaultMaxArrayLen,
	MaxBulkLen:  DefaultMaxBulkLen,
	MaxLineLen:  DefaultMaxLineLen,
}

// Decode decodes one request frame using the default limits.
func Decode(buf []byte) (args [][]byte, n int, err error) {
	return defaultDecoder.Decode(buf)
}

// Decode decodes one request frame from the start of buf.
//
// On success it returns the arguments (args[0] is the command name) and the
// number of bytes consumed. The argument slices alias buf and are valid only
// until buf is modified. An empty array decodes to zero args.
//
// Errors wrap ErrNeedMoreData, ErrProtocol or ErrLimitExceeded.
func (d *Decoder) Decode(buf []byte) (args [][]byte, n int, err error) {
	if len(buf) == 0 {
		return nil, 0, ErrNeedMoreData
	}
	if buf[0] != '*' {
		return nil, 0, fmt.Errorf("%w: expected '*', got %q", ErrProtocol, buf[0])
	}

	argc, pos, err := d.readLength(buf, 0)
	if err != nil {
		return nil, 0, err
	}
	if argc < 0 {
		return nil, 0, fmt.Errorf("%w: invalid multibulk length", ErrProtocol)
	}
	if argc > int64(d.maxArrayLen()) {
		return nil, 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, argc, d.maxArrayLen())
	}

	args = make([][]byte, 0, argc)
	for i := int64(0); i < argc; i++ {
		if pos >= len(buf) {
			return nil, 0, ErrNeedMoreData
		}
		if buf[pos] != '$' {
			return nil, 0, fmt.Errorf("%w: expected '$', got %q", ErrProtocol, buf[pos])
		}

		size, next, err := d.readLength(buf, pos)
		if err != nil {
			return nil, 0, err
		}
		if size < 0 {
			return nil, 0, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
		}
		if size > int64(d.maxBulkLen()) {
			return nil, 0, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, size, d.maxBulkLen())
		}

		end := next + int(size)
		if end+2 > len(buf) {
			return nil, 0, ErrNeedMoreData
		}
		if buf[end] != '\r' || buf[end+1] != '\n' {
			return nil, 0, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
		}
		args = append(args, buf[next:end:end])
		pos = end + 2
	}
	return args, pos, nil
}

// readLength parses the "<sigil><int>\r\n" header starting at buf[pos] and
// returns the integer and the offset just past the CRLF.
func (d *Decoder) readLength(buf []byte, pos int) (int64, int, error) {
	maxLine := d.maxLineLen()
	rest := buf[pos:]

	idx := bytes.IndexByte(rest, '\n')
	if idx < 0 {
		if len(rest) > maxLine {
			return 0, 0, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLine)
		}
		return 0, 0, ErrNeedMoreData
	}
	if idx+1 > maxLine {
		return 0, 0, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLine)
	}
	if idx < 1 || rest[idx-1] != '\r' {
		return 0, 0, fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}

	n, ok := parseInt(rest[1 : idx-1])
	if !ok {
		return 0, 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, rest[1:idx-1])
	}
	return n, pos + idx + 1, nil
}

func (d *Decoder) maxArrayLen() int {
	if d.MaxArrayLen > 0 {
		return d.MaxArrayLen
	}
	return DefaultMaxArrayLen
}

func (d *Decoder) maxBulkLen() int {
	if d.MaxBulkLen > 0 {
		return d.MaxBulkLen
	}
	return DefaultMaxBulkLen
}

func (d *Decoder) maxLineLen() int {
	if d.MaxLineLen > 0 {
		return d.MaxLineLen
	}
	return DefaultMaxLineLen
}

// parseInt accepts an optional '-' followed by decimal digits.
func parseInt(b []byte) (int64, bool) {
	if len(b) == 0 || b[0] == '+' {
		return 0, false
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ============================================================
// Replies
// ============================================================

// ReplyKind identifies a reply type.
type ReplyKind uint8

// Reply kinds.
const (
	ReplySimple ReplyKind = iota + 1
	ReplyError
	ReplyInteger
	ReplyBulk
	ReplyNull
)

// Reply is a single server reply.
type Reply struct {
	Kind ReplyKind
	Str  []byte // simple string, error text or bulk payload
	Int  int64
}

// SimpleString returns a "+<s>" reply.
func SimpleString(s string) Reply {
	return Reply{Kind: ReplySimple, Str: []byte(s)}
}

// Error returns a "-ERR <msg>" reply.
func Error(msg string) Reply {
	return TypedError("ERR", msg)
}

// TypedError returns a "-<prefix> <msg>" reply, such as WRONGTYPE.
func TypedError(prefix, msg string) Reply {
	return Reply{Kind: ReplyError, Str: []byte(prefix + " " + msg)}
}

// Integer returns a ":<n>" reply.
func Integer(n int64) Reply {
	return Reply{Kind: ReplyInteger, Int: n}
}

// Bulk returns a "$<len>" reply carrying b.
func Bulk(b []byte) Reply {
	return Reply{Kind: ReplyBulk, Str: b}
}

// NullBulk returns the "$-1" reply.
func NullBulk() Reply {
	return Reply{Kind: ReplyNull}
}

// AppendReply appends the wire form of r to dst.
func AppendReply(dst []byte, r Reply) []byte {
	switch r.Kind {
	case ReplySimple:
		dst = append(dst, '+')
		dst = append(dst, r.Str...)
	case ReplyError:
		dst = append(dst, '-')
		dst = append(dst, r.Str...)
	case ReplyInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, r.Int, 10)
	case ReplyBulk:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(r.Str)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, r.Str...)
	default:
		dst = append(dst, "$-1"...)
	}
	return append(dst, crlf...)
}

// WriteReply writes the wire form of r to w.
func WriteReply(w io.Writer, r Reply) error {
	_, err := w.Write(AppendReply(nil, r))
	return err
}

// String formats r for humans, in the style of redis-cli.
func (r Reply) String() string {
	switch r.Kind {
	case ReplySimple:
		return string(r.Str)
	case ReplyError:
		return "(error) " + string(r.Str)
	case ReplyInteger:
		return "(integer) " + strconv.FormatInt(r.Int, 10)
	case ReplyBulk:
		return strconv.Quote(string(r.Str))
	default:
		return "(nil)"
	}
}

// DecodeReply decodes one reply from the start of buf. It follows the same
// contract as Decode: ErrNeedMoreData on a partial reply. Str aliases buf.
func DecodeReply(buf []byte) (Reply, int, error) {
	if len(buf) == 0 {
		return Reply{}, 0, ErrNeedMoreData
	}

	idx := bytes.Index(buf, crlf)
	if idx < 0 {
		return Reply{}, 0, ErrNeedMoreData
	}
	if idx == 0 {
		return Reply{}, 0, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}
	line := buf[1:idx]
	next := idx + 2

	switch buf[0] {
	case '+':
		return Reply{Kind: ReplySimple, Str: line}, next, nil
	case '-':
		return Reply{Kind: ReplyError, Str: line}, next, nil
	case ':':
		n, ok := parseInt(line)
		if !ok {
			return Reply{}, 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line)
		}
		return Integer(n), next, nil
	case '$':
		size, ok := parseInt(line)
		if !ok {
			return Reply{}, 0, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, line)
		}
		if size == -1 {
			return NullBulk(), next, nil
		}
		if size < 0 {
			return Reply{}, 0, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
		}
		end := next + int(size)
		if end+2 > len(buf) {
			return Reply{}, 0, ErrNeedMoreData
		}
		if buf[end] != '\r' || buf[end+1] != '\n' {
			return Reply{}, 0, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
		}
		return Bulk(buf[next:end:end]), end + 2, nil
	default:
		return Reply{}, 0, fmt.Errorf("%w: unsupported reply type %q", ErrProtocol, buf[0])
	}
}

// EncodeCommand encodes args as a request frame.
func EncodeCommand(args ...[]byte) []byte {
	return AppendCommand(nil, args...)
}

// AppendCommand appends the request frame for args to dst.
func AppendCommand(dst []byte, args ...[]byte) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(len(args)), 10)
	dst = append(dst, crlf...)
	for _, a := range args {
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(a)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, a...)
		dst = append(dst, crlf...)
	}
	return dst
}
