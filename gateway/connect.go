package gateway

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/telistry/switchboard/core/protocol"
)

// Procedure is the Connect RPC procedure serving contact events.
const Procedure = "/telistry.switchboard.v1.SwitchboardService/HandleEvent"

// NewConnectHandler builds the unary handler for contact events. It returns
// the procedure path and the handler to mount there.
func NewConnectHandler(svc Dialog) (string, http.Handler) {
	handler := connect.NewUnaryHandler(
		Procedure,
		func(ctx context.Context, req *connect.Request[protocol.Event]) (*connect.Response[protocol.Response], error) {
			resp, err := svc.Handle(ctx, *req.Msg)
			if err != nil {
				return nil, rpcError(err)
			}
			return connect.NewResponse(resp), nil
		},
		connect.WithCodec(jsonCodec{}),
	)
	return Procedure, handler
}

// rpcError maps a dialog failure onto a Connect status. The dialog converts
// everything else into a caller-safe reply, so only contract violations and
// cancellations arrive here.
func rpcError(err error) *connect.Error {
	switch {
	case errors.Is(err, protocol.ErrInvalidEvent):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
