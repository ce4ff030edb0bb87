package action

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ruteri/amp-confirm/interfaces"
)

// ErrInvalidActionFile is returned when an action file cannot be decoded.
var ErrInvalidActionFile = errors.New("invalid action file")

// Kind names an asset-management action.
type Kind string

const (
	KindReissue        Kind = "reissue"
	KindDistribute     Kind = "distribute"
	KindBurn           Kind = "burn"
	KindUpdateBlinders Kind = "update-blinders"
)

// Kinds lists every supported action kind.
var Kinds = []Kind{KindReissue, KindDistribute, KindBurn, KindUpdateBlinders}

func (k Kind) String() string { return string(k) }

// UsesActionFile reports whether requests of this kind are loaded from an action file.
func (k Kind) UsesActionFile() bool {
	return k != KindUpdateBlinders
}

// Payload is the kind-specific part of a Request.
type Payload interface {
	payload()
}

type ReissuePayload struct {
	Amount float64
	// UTXOs are the reissuance token outputs the wallet must hold.
	UTXOs []interfaces.Outpoint
	// SplitReissuanceToken relaxes the UTXO check to "at least one present".
	SplitReissuanceToken bool
}

type DistributePayload struct {
	DistributionUUID string
	AddressAmounts   map[string]float64
	AddressAssets    map[string]string
}

type BurnPayload struct {
	Amount float64
	UTXOs  []interfaces.Outpoint
}

type UpdateBlindersPayload struct{}

func (ReissuePayload) payload()        {}
func (DistributePayload) payload()     {}
func (BurnPayload) payload()           {}
func (UpdateBlindersPayload) payload() {}

// Request is an immutable description of one requested action.
type Request struct {
	// Kind is the action the operator asked for.
	Kind Kind
	// Declared is the command the action file was generated for.
	Declared         string
	MinClientVersion int
	BaseURL          string
	AssetUUID        string
	AssetID          string
	Payload          Payload

	// Intent identifies the logical action across invocations.
	Intent string
}

// actionFile is the JSON document the registry generates for the operator.
type actionFile struct {
	Command          string                `json:"command"`
	MinClientVersion int                   `json:"min_supported_client_script_version"`
	BaseURL          string                `json:"base_url"`
	AssetUUID        string                `json:"asset_uuid"`
	AssetID          string                `json:"asset_id"`
	Amount           float64               `json:"amount"`
	ReissuanceUTXOs  []interfaces.Outpoint `json:"reissuance_utxos"`
	UTXOs            []interfaces.Outpoint `json:"utxos"`
	DistributionUUID string                `json:"distribution_uuid"`
	AddressAmounts   map[string]float64    `json:"map_address_amount"`
	AddressAssets    map[string]string     `json:"map_address_asset"`
}

// Options carries command-line settings that shape the payload.
type Options struct {
	SplitReissuanceToken bool
}

// LoadRequest reads the action file at path and decodes it for the requested kind.
func LoadRequest(path string, kind Kind, opts Options) (*Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open action file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("could not read action file %s: %w", path, err)
	}
	return ParseRequest(data, kind, opts)
}

// ParseRequest decodes action file contents for the requested kind. A mismatch between
// kind and the file's declared command is not an error here; preflight reports it.
func ParseRequest(data []byte, kind Kind, opts Options) (*Request, error) {
	if !kind.UsesActionFile() {
		return nil, fmt.Errorf("%w: %s does not use an action file", ErrInvalidActionFile, kind)
	}

	var file actionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidActionFile, err)
	}
	if file.AssetUUID == "" || file.BaseURL == "" {
		return nil, fmt.Errorf("%w: base_url and asset_uuid are required", ErrInvalidActionFile)
	}

	req := &Request{
		Kind:             kind,
		Declared:         file.Command,
		MinClientVersion: file.MinClientVersion,
		BaseURL:          file.BaseURL,
		AssetUUID:        file.AssetUUID,
		AssetID:          file.AssetID,
		Intent:           hashIntent(data),
	}

	switch kind {
	case KindReissue:
		req.Payload = ReissuePayload{
			Amount:               file.Amount,
			UTXOs:                file.ReissuanceUTXOs,
			SplitReissuanceToken: opts.SplitReissuanceToken,
		}
	case KindDistribute:
		req.Payload = DistributePayload{
			DistributionUUID: file.DistributionUUID,
			AddressAmounts:   file.AddressAmounts,
			AddressAssets:    file.AddressAssets,
		}
	case KindBurn:
		req.Payload = BurnPayload{
			Amount: file.Amount,
			UTXOs:  file.UTXOs,
		}
	default:
		return nil, fmt.Errorf("%w: unknown action kind %q", ErrInvalidActionFile, kind)
	}

	return req, nil
}

// NewUpdateBlindersRequest builds an update-blinders request from flag values.
func NewUpdateBlindersRequest(baseURL, assetUUID string) (*Request, error) {
	if baseURL == "" || assetUUID == "" {
		return nil, errors.New("base url and asset uuid are required")
	}
	return &Request{
		Kind:      KindUpdateBlinders,
		Declared:  string(KindUpdateBlinders),
		BaseURL:   baseURL,
		AssetUUID: assetUUID,
		Payload:   UpdateBlindersPayload{},
		Intent:    hashIntent([]byte(string(KindUpdateBlinders) + "\x00" + assetUUID)),
	}, nil
}

func hashIntent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
