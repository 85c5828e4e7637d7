// Package grpcweb lets browsers reach the gRPC service over HTTP/1.1. It
// accepts grpc-web framed requests and plain JSON bodies and forwards the
// message bytes untouched to the gRPC server.
package grpcweb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"medtrack-api/internal/api"
)

const (
	frameData    byte = 0x00
	frameTrailer byte = 0x80

	maxBody = 1 << 20
)

// Bridge translates gRPC-Web / JSON (browser HTTP/1.1) → native gRPC.
type Bridge struct {
	conn   grpc.ClientConnInterface
	close  func() error
	logger *zap.Logger
}

// New dials the gRPC server at addr (e.g. "localhost:50051").
func New(addr string, logger *zap.Logger) (*Bridge, error) {
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}
	return &Bridge{conn: conn, close: conn.Close, logger: logger}, nil
}

// NewWithConn forwards over an existing connection. Closing the bridge
// leaves conn open.
func NewWithConn(conn grpc.ClientConnInterface, logger *zap.Logger) *Bridge {
	return &Bridge{conn: conn, close: func() error { return nil }, logger: logger}
}

func (b *Bridge) Close() error { return b.close() }

// ServeHTTP forwards one unary call. The request path is the gRPC method,
// e.g. /medtrack.v1.MedTrackService/Login.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.URL.Path, "/"+api.ServiceName+"/") {
		http.Error(w, "unknown service", http.StatusNotFound)
		return
	}

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/grpc-web"):
		b.forwardFramed(w, r)
	case strings.HasPrefix(ct, "application/json"):
		b.forwardJSON(w, r)
	default:
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
	}
}

func (b *Bridge) forwardFramed(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeTrailer(w, codes.Internal, "read body failed")
		return
	}
	payload, err := unframe(body)
	if err != nil {
		writeTrailer(w, codes.InvalidArgument, err.Error())
		return
	}
	if !json.Valid(payload) {
		writeTrailer(w, codes.InvalidArgument, "malformed message")
		return
	}

	out, err := b.invoke(r, payload)
	if err != nil {
		st := status.Convert(err)
		writeTrailer(w, st.Code(), st.Message())
		return
	}
	writeFramed(w, out)
}

func (b *Bridge) forwardJSON(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSONError(w, status.New(codes.Internal, "read body failed"))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		writeJSONError(w, status.New(codes.InvalidArgument, "malformed JSON body"))
		return
	}

	out, err := b.invoke(r, body)
	if err != nil {
		writeJSONError(w, status.Convert(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// invoke sends payload as the encoded request message and returns the
// encoded response message.
func (b *Bridge) invoke(r *http.Request, payload []byte) ([]byte, error) {
	// forward metadata
	md := metadata.MD{}
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		md.Set("x-real-ip", ip)
	}
	ctx := metadata.NewOutgoingContext(r.Context(), md)

	resp := &rawMsg{}
	err := b.conn.Invoke(ctx, r.URL.Path, &rawMsg{data: payload}, resp, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		st := status.Convert(err)
		b.logger.Debug("grpc-web call failed",
			zap.String("method", r.URL.Path),
			zap.String("code", st.Code().String()),
			zap.String("message", st.Message()),
		)
		return nil, err
	}
	return resp.data, nil
}

// unframe extracts the message of a grpc-web data frame: 1-byte flag +
// 4-byte big-endian length + message.
func unframe(body []byte) ([]byte, error) {
	if len(body) < 5 {
		return nil, fmt.Errorf("body too short")
	}
	if body[0] != frameData {
		return nil, fmt.Errorf("unexpected frame flag %#x", body[0])
	}
	n := binary.BigEndian.Uint32(body[1:5])
	if int(n)+5 > len(body) {
		return nil, fmt.Errorf("incomplete frame")
	}
	return body[5 : 5+n], nil
}

func frame(flag byte, data []byte) []byte {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

// rawMsg wraps already encoded message bytes.
type rawMsg struct{ data []byte }

// rawCodec passes bytes through without marshal/unmarshal. It is named
// after the codec the service speaks so the server decodes the bytes with
// it.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	return v.(*rawMsg).data, nil
}
func (rawCodec) Unmarshal(data []byte, v any) error {
	m := v.(*rawMsg)
	m.data = append([]byte(nil), data...)
	return nil
}
func (rawCodec) Name() string { return api.CodecName }

func writeTrailer(w http.ResponseWriter, code codes.Code, msg string) {
	w.Header().Set("Content-Type", "application/grpc-web+json")
	w.WriteHeader(http.StatusOK)
	w.Write(frame(frameTrailer, trailer(code, msg)))
}

func writeFramed(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/grpc-web+json")
	w.WriteHeader(http.StatusOK)
	w.Write(frame(frameData, data))
	w.Write(frame(frameTrailer, trailer(codes.OK, "")))
}

func trailer(code codes.Code, msg string) []byte {
	t := fmt.Sprintf("grpc-status:%d\r\n", code)
	if msg != "" {
		t += "grpc-message:" + strings.NewReplacer("\r", " ", "\n", " ").Replace(msg) + "\r\n"
	}
	return []byte(t)
}

type jsonError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSONError(w http.ResponseWriter, st *status.Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(runtime.HTTPStatusFromCode(st.Code()))
	json.NewEncoder(w).Encode(jsonError{Code: st.Code().String(), Message: st.Message()})
}
