package proxyctl

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	grpcmeta "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/metadata"
	proxyservice "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/proxy"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/config"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/engine"
)

// command binds its flags on fs and returns the action to run after parsing.
type command struct {
	summary string
	offline bool
	bind    func(fs *flag.FlagSet, s *session) func(context.Context) error
}

var commands = map[string]command{
	"keygen":      {summary: "generate a signing key", offline: true, bind: bindKeygen},
	"initialize":  {summary: "set the admin and relayer (signed by the admin)", bind: bindInitialize},
	"set-relayer": {summary: "replace the relayer (signed by the admin)", bind: bindSetRelayer},
	"create":      {summary: "create a dispute (signed by the claimer)", bind: bindCreate},
	"pay":         {summary: "pay a dispute stake (signed by the payer)", bind: bindPay},
	"evidence":    {summary: "submit an evidence hash (signed by a party)", bind: bindEvidence},
	"bind":        {summary: "bind a remote dispute id (signed by the relayer)", bind: bindBind},
	"rule":        {summary: "record a ruling (signed by the relayer)", bind: bindRule},
	"execute":     {summary: "deliver the ruling to the arbitrable", bind: bindExecute},
	"get":         {summary: "show a dispute", bind: bindGet},
	"lookup":      {summary: "resolve a remote dispute id", bind: bindLookup},
	"relayer":     {summary: "show the relayer", bind: bindRelayer},
	"disputes":    {summary: "list disputes by id", bind: bindDisputes},
	"events":      {summary: "list journal events", bind: bindEvents},
	"verify":      {summary: "verify the journal hash chain and signatures", bind: bindVerify},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func addressFlag(fs *flag.FlagSet, target *identity.Address, name, usage string) {
	fs.Func(name, usage, func(value string) error {
		addr, err := identity.Parse(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*target = addr
		return nil
	})
}

func amountFlag(fs *flag.FlagSet, target *amount.Amount, name, usage string) {
	fs.Func(name, usage, func(value string) error {
		parsed, err := amount.Parse(value)
		if err != nil {
			return err
		}
		*target = parsed
		return nil
	})
}

func hashFlag(fs *flag.FlagSet, target *dispute.Hash, name, usage string) {
	fs.Func(name, usage, func(value string) error {
		parsed, err := dispute.ParseHash(value)
		if err != nil {
			return err
		}
		*target = parsed
		return nil
	})
}

// requireFlags fails unless every named flag was set on the command line.
func requireFlags(fs *flag.FlagSet, names ...string) error {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	var missing []string
	for _, name := range names {
		if !set[name] {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing %s", fs.Name(), strings.Join(missing, ", "))
	}
	return nil
}

func bindKeygen(_ *flag.FlagSet, s *session) func(context.Context) error {
	return func(context.Context) error {
		seed := make([]byte, 32)
		if _, err := io.ReadFull(s.random, seed); err != nil {
			return fmt.Errorf("generate seed: %w", err)
		}
		key, err := identity.NewKey(seed)
		if err != nil {
			return err
		}
		return s.print(map[string]string{"private_key": key.Seed(), "address": key.Address().String()})
	}
}

func bindInitialize(fs *flag.FlagSet, s *session) func(context.Context) error {
	req := &proxyservice.InitializeRequest{Admin: s.self()}
	addressFlag(fs, &req.Admin, "admin", "admin address (default: the signer)")
	addressFlag(fs, &req.Relayer, "relayer", "relayer address")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "relayer"); err != nil {
			return err
		}
		ctx, err := s.signed(ctx, engine.OperationInitialize, config.InitializePayload{Admin: req.Admin, Relayer: req.Relayer})
		if err != nil {
			return err
		}
		resp, err := s.client.Initialize(ctx, req)
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindSetRelayer(fs *flag.FlagSet, s *session) func(context.Context) error {
	req := &proxyservice.SetRelayerRequest{}
	addressFlag(fs, &req.Relayer, "relayer", "new relayer address")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "relayer"); err != nil {
			return err
		}
		ctx, err := s.signed(ctx, engine.OperationSetRelayer, config.SetRelayerPayload{Relayer: req.Relayer})
		if err != nil {
			return err
		}
		resp, err := s.client.SetRelayer(ctx, req)
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindCreate(fs *flag.FlagSet, s *session) func(context.Context) error {
	params := dispute.CreateParams{Claimer: s.self()}
	var jurors uint
	addressFlag(fs, &params.Arbitrable, "arbitrable", "settlement target address")
	addressFlag(fs, &params.Claimer, "claimer", "claimer address (default: the signer)")
	addressFlag(fs, &params.Defender, "defender", "defender address")
	fs.StringVar(&params.Category, "category", "", "dispute category symbol")
	hashFlag(fs, &params.RootEvidenceHash, "root-evidence", "hex 32-byte root evidence hash")
	fs.UintVar(&jurors, "jurors", 0, "jurors required")
	fs.Uint64Var(&params.PaySeconds, "pay-seconds", 0, "payment window in seconds")
	fs.Uint64Var(&params.EvidenceSeconds, "evidence-seconds", 0, "evidence window in seconds")
	fs.Uint64Var(&params.CommitSeconds, "commit-seconds", 0, "commit window in seconds")
	fs.Uint64Var(&params.RevealSeconds, "reveal-seconds", 0, "reveal window in seconds")
	amountFlag(fs, &params.RequiredAmount, "amount", "stake each party must pay")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "arbitrable", "defender", "category", "jurors", "amount"); err != nil {
			return err
		}
		if jurors > math.MaxUint32 {
			return fmt.Errorf("jurors must fit in 32 bits")
		}
		params.JurorsRequired = uint32(jurors)
		ctx, err := s.signed(ctx, engine.OperationCreateDispute, params)
		if err != nil {
			return err
		}
		resp, err := s.client.CreateDispute(ctx, &proxyservice.CreateDisputeRequest{Params: params})
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindPay(fs *flag.FlagSet, s *session) func(context.Context) error {
	payload := dispute.PayPayload{Payer: s.self()}
	addressFlag(fs, &payload.Payer, "payer", "paying party (default: the signer)")
	fs.Uint64Var(&payload.DisputeID, "dispute", 0, "local dispute id")
	amountFlag(fs, &payload.Amount, "amount", "stake amount")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "dispute", "amount"); err != nil {
			return err
		}
		ctx, err := s.signed(ctx, engine.OperationPayDispute, payload)
		if err != nil {
			return err
		}
		resp, err := s.client.PayDispute(ctx, &proxyservice.PayDisputeRequest{Payer: payload.Payer, DisputeID: payload.DisputeID, Amount: payload.Amount})
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindEvidence(fs *flag.FlagSet, s *session) func(context.Context) error {
	payload := dispute.EvidencePayload{Submitter: s.self()}
	addressFlag(fs, &payload.Submitter, "submitter", "submitting party (default: the signer)")
	fs.Uint64Var(&payload.DisputeID, "dispute", 0, "local dispute id")
	hashFlag(fs, &payload.EvidenceHash, "hash", "hex 32-byte evidence hash")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "dispute", "hash"); err != nil {
			return err
		}
		ctx, err := s.signed(ctx, engine.OperationSubmitEvidence, payload)
		if err != nil {
			return err
		}
		resp, err := s.client.SubmitEvidence(ctx, &proxyservice.SubmitEvidenceRequest{
			Submitter: payload.Submitter, DisputeID: payload.DisputeID, EvidenceHash: payload.EvidenceHash,
		})
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindBind(fs *flag.FlagSet, s *session) func(context.Context) error {
	payload := dispute.BindPayload{}
	fs.Uint64Var(&payload.LocalID, "local", 0, "local dispute id")
	fs.Uint64Var(&payload.RemoteID, "remote", 0, "remote dispute id")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "local", "remote"); err != nil {
			return err
		}
		ctx, err := s.signed(ctx, engine.OperationBindRemote, payload)
		if err != nil {
			return err
		}
		resp, err := s.client.BindRemoteDispute(ctx, &proxyservice.BindRemoteDisputeRequest{LocalID: payload.LocalID, RemoteID: payload.RemoteID})
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindRule(fs *flag.FlagSet, s *session) func(context.Context) error {
	var localID uint64
	var ruling uint
	fs.Uint64Var(&localID, "local", 0, "local dispute id")
	fs.UintVar(&ruling, "ruling", 0, "ruling, 0 or 1")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "local", "ruling"); err != nil {
			return err
		}
		if ruling > math.MaxUint32 {
			return fmt.Errorf("ruling must fit in 32 bits")
		}
		payload := dispute.RulePayload{LocalID: localID, Ruling: uint32(ruling)}
		ctx, err := s.signed(ctx, engine.OperationRule, payload)
		if err != nil {
			return err
		}
		resp, err := s.client.Rule(ctx, &proxyservice.RuleRequest{LocalID: payload.LocalID, Ruling: payload.Ruling})
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindExecute(fs *flag.FlagSet, s *session) func(context.Context) error {
	var localID uint64
	var invocationID string
	fs.Uint64Var(&localID, "local", 0, "local dispute id")
	fs.StringVar(&invocationID, "invocation", "", "invocation id recorded on the execution event")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "local"); err != nil {
			return err
		}
		ctx = grpcmeta.AppendRequestIDs(ctx, "", strings.TrimSpace(invocationID))
		resp, err := s.client.ExecuteRule(ctx, &proxyservice.ExecuteRuleRequest{LocalID: localID})
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindGet(fs *flag.FlagSet, s *session) func(context.Context) error {
	req := &proxyservice.GetDisputeRequest{}
	fs.Uint64Var(&req.DisputeID, "dispute", 0, "local dispute id")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "dispute"); err != nil {
			return err
		}
		resp, err := s.client.GetDispute(ctx, req)
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindLookup(fs *flag.FlagSet, s *session) func(context.Context) error {
	req := &proxyservice.GetLocalByRemoteRequest{}
	fs.Uint64Var(&req.RemoteID, "remote", 0, "remote dispute id")
	return func(ctx context.Context) error {
		if err := requireFlags(fs, "remote"); err != nil {
			return err
		}
		resp, err := s.client.GetLocalByRemote(ctx, req)
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindRelayer(_ *flag.FlagSet, s *session) func(context.Context) error {
	return func(ctx context.Context) error {
		resp, err := s.client.GetRelayer(ctx, &proxyservice.GetRelayerRequest{})
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindDisputes(fs *flag.FlagSet, s *session) func(context.Context) error {
	req := &proxyservice.ListDisputesRequest{}
	var pageSize int
	fs.StringVar(&req.Status, "status", "", "only disputes in this status")
	fs.IntVar(&pageSize, "page-size", 0, "disputes per page")
	fs.StringVar(&req.PageToken, "page-token", "", "token from a previous page")
	return func(ctx context.Context) error {
		req.PageSize = int32(min(max(pageSize, 0), math.MaxInt32))
		resp, err := s.client.ListDisputes(ctx, req)
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindEvents(fs *flag.FlagSet, s *session) func(context.Context) error {
	req := &proxyservice.ListEventsRequest{}
	var pageSize int
	fs.StringVar(&req.Filter, "filter", "", `AIP-160 filter, e.g. 'dispute_id = 1 AND topic = "PAID"'`)
	fs.StringVar(&req.OrderBy, "order-by", "", `"seq" or "seq desc"`)
	fs.IntVar(&pageSize, "page-size", 0, "events per page")
	fs.StringVar(&req.PageToken, "page-token", "", "token from a previous page")
	return func(ctx context.Context) error {
		req.PageSize = int32(min(max(pageSize, 0), math.MaxInt32))
		resp, err := s.client.ListEvents(ctx, req)
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}

func bindVerify(_ *flag.FlagSet, s *session) func(context.Context) error {
	return func(ctx context.Context) error {
		resp, err := s.client.VerifyJournal(ctx, &proxyservice.VerifyJournalRequest{})
		if err != nil {
			return err
		}
		return s.print(resp)
	}
}
