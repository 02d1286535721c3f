package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	domainerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
	"ccdepot/contexts/identity-access/authorization-service/ports"
)

func hashRequest(payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// replay loads a stored response into out. It reports false when the key is
// unused and ErrIdempotencyConflict when it was used for a different request.
func replay(
	ctx context.Context,
	store ports.IdempotencyStore,
	key string,
	requestHash string,
	now time.Time,
	out any,
) (bool, error) {
	existing, found, err := store.GetRecord(ctx, key, now)
	if err != nil || !found {
		return false, err
	}
	if existing.RequestHash != requestHash {
		return false, domainerrors.ErrIdempotencyConflict
	}
	if err := json.Unmarshal(existing.ResponsePayload, out); err != nil {
		return false, err
	}
	return true, nil
}

func remember(
	ctx context.Context,
	store ports.IdempotencyStore,
	key string,
	operation string,
	requestHash string,
	response any,
	expiresAt time.Time,
) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return store.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             key,
		Operation:       operation,
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       expiresAt,
	})
}
