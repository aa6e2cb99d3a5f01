// Package connection provides the RESP client used by minikv-cli.
//
// A Client owns one TCP connection. Requests are encoded with
// redisserver.EncodeCommand and replies are decoded with
// redisserver.DecodeReply, so the CLI speaks exactly the codec the
// server implements.
package connection
