package grpcarchive

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sectormesh/routing/storage"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		// The server uses InvalidArgument for malformed/undefined IDs.
		return storage.ErrInvalidID
	case codes.DataLoss:
		// The server uses DataLoss when bytes do not match the requested ID.
		return storage.ErrIDMismatch
	default:
		// Best-effort: if the server sent a known storage error message,
		// preserve it.
		switch st.Message() {
		case storage.ErrNotFound.Error():
			return storage.ErrNotFound
		case storage.ErrInvalidID.Error():
			return storage.ErrInvalidID
		case storage.ErrIDMismatch.Error():
			return storage.ErrIDMismatch
		default:
			return err
		}
	}
}
