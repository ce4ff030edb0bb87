package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/common"
	"github.com/ruteri/amp-confirm/interfaces"
)

const (
	// NodeName must appear in the node's subversion string.
	NodeName = "Elements Core"
	// MinNodeVersion is Elements 0.17.0.1.
	MinNodeVersion = 170001
	// MinVerificationProgress is the sync progress at which the node is considered synced.
	MinVerificationProgress = 0.999

	// DefaultSettleDelay lets recent transactions reach the registry before lost
	// outputs are checked.
	DefaultSettleDelay = 60 * time.Second
)

// Preflight runs the checks shared by every action kind.
type Preflight struct {
	Node       interfaces.NodeClient
	Registries interfaces.RegistryFactory
	Log        *slog.Logger
}

// Run checks the node, the request and the registry login, in that order, and
// returns the authenticated registry.
func (p *Preflight) Run(ctx context.Context, req *action.Request) (interfaces.Registry, error) {
	if err := p.checkNodeVersion(ctx); err != nil {
		return nil, err
	}
	if err := p.checkNodeSynced(ctx); err != nil {
		return nil, err
	}
	if err := p.checkWalletUnlocked(ctx); err != nil {
		return nil, err
	}

	if req.Kind.UsesActionFile() {
		if err := checkClientVersion(req); err != nil {
			return nil, err
		}
		if req.Declared != string(req.Kind) {
			return nil, fmt.Errorf("%w: asked to perform a %s but the action file is for %q",
				ErrActionKindMismatch, req.Kind, req.Declared)
		}
	}

	reg, err := p.Registries.RegistryFor(ctx, req.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: could not log in to %s: %w", ErrRegistryUnhealthy, req.BaseURL, err)
	}
	return reg, nil
}

func (p *Preflight) checkNodeVersion(ctx context.Context) error {
	info, err := p.Node.GetNetworkInfo(ctx)
	if err != nil {
		return err
	}

	if !strings.Contains(info.Subversion, NodeName) {
		return fmt.Errorf("%w: unexpected node (%s), make sure you are connecting to an Elements node",
			ErrUnsupportedNode, info.Subversion)
	}
	if info.Version < MinNodeVersion {
		return fmt.Errorf("%w: node version %06d not supported (min: %06d)",
			ErrUnsupportedNode, info.Version, MinNodeVersion)
	}

	p.Log.Debug("Connected to Elements node", slog.Int("version", info.Version))
	return nil
}

func (p *Preflight) checkNodeSynced(ctx context.Context) error {
	info, err := p.Node.GetBlockchainInfo(ctx)
	if err != nil {
		return err
	}
	if info.VerificationProgress < MinVerificationProgress {
		return fmt.Errorf("%w: verification progress %.4f, wait until the node is fully synchronized",
			ErrNodeNotSynced, info.VerificationProgress)
	}
	return nil
}

// checkWalletUnlocked signs with an invalid address. A locked wallet fails with
// RPCWalletUnlockNeeded before the address is looked at.
func (p *Preflight) checkWalletUnlocked(ctx context.Context) error {
	_, err := p.Node.SignMessage(ctx, "invalidaddress", "message")
	if err == nil {
		return nil
	}

	var nodeErr *interfaces.NodeError
	if !errors.As(err, &nodeErr) {
		return err
	}
	if nodeErr.Code == interfaces.RPCWalletUnlockNeeded {
		return fmt.Errorf("%w: %s", ErrWalletLocked, nodeErr.Message)
	}
	return nil
}

func checkClientVersion(req *action.Request) error {
	if req.MinClientVersion < common.ClientScriptVersion {
		return fmt.Errorf("%w: client version %06d not supported (min: %06d)",
			ErrIncompatibleActionFile, common.ClientScriptVersion, req.MinClientVersion)
	}
	return nil
}

// checkLostOutputs waits for the settle delay and then requires the registry to
// report no lost outputs for the asset.
func checkLostOutputs(ctx context.Context, d *deps, assetUUID string, includeReissuance bool) error {
	if d.settleDelay > 0 {
		d.log.Info("Waiting for transactions to propagate", slog.Duration("delay", d.settleDelay))
		timer := d.clock.Timer(d.settleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	d.log.Debug("Checking lost outputs", slog.String("assetUUID", assetUUID))
	lost, err := d.registry.GetLostOutputs(ctx, assetUUID)
	if err != nil {
		return fmt.Errorf("%w: balance request failed, transaction will not be sent: %w", ErrRegistryUnhealthy, err)
	}

	if len(lost.LostOutputs) > 0 {
		return fmt.Errorf("%w: registry reports %d lost outputs, transaction will not be sent",
			ErrRegistryUnhealthy, len(lost.LostOutputs))
	}
	if includeReissuance && len(lost.ReissuanceLostOutputs) > 0 {
		return fmt.Errorf("%w: registry reports %d lost reissuance outputs, transaction will not be sent",
			ErrRegistryUnhealthy, len(lost.ReissuanceLostOutputs))
	}
	return nil
}
