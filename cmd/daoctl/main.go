// Package main is the entry point for daoctl, an admin CLI that runs ledger
// operations directly against the configured store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/govledger/internal/adapters/repository"
	"github.com/vncsmyrnk/govledger/internal/config"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
	"github.com/vncsmyrnk/govledger/internal/core/services"
	"github.com/vncsmyrnk/govledger/internal/logging"
)

type storeOpener func(ctx context.Context, cfg config.StoreConfig) (ports.LedgerStore, error)

type cli struct {
	configPath string
	openStore  storeOpener

	cfg   *config.Config
	store ports.LedgerStore
}

func main() {
	loadDotEnv(slog.Default())

	if err := newRootCmd(repository.Open).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadDotEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found")
	}
}

func newRootCmd(openStore storeOpener) *cobra.Command {
	c := &cli{openStore: openStore}

	rootCmd := &cobra.Command{
		Use:   "daoctl",
		Short: "Administer the governance ledger",
		Long: `daoctl runs ledger operations against the store selected by the
configuration (LEDGER_STORE, POSTGRES_*, REDIS_* or a YAML file).

Example:
  daoctl init --as 2d1c... --name "Acme DAO"
  daoctl vote --as 7f3e... --proposal 9a0b... --yes`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.store != nil {
				return c.store.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to configuration file (YAML)")

	rootCmd.AddCommand(
		c.newInitCmd(),
		c.newProposeCmd(),
		c.newVoteCmd(),
		c.newShowCmd(),
		c.newTokenCmd(),
	)

	return rootCmd
}

// ledger opens the configured store on first use.
func (c *cli) ledger(ctx context.Context) (ports.LedgerService, error) {
	if c.store == nil {
		store, err := c.openStore(ctx, c.cfg.Store)
		if err != nil {
			return nil, err
		}
		c.store = store
	}
	logger := logging.NewLogger(logging.Config{Level: c.cfg.Log.Level, Format: c.cfg.Log.Format})
	return services.NewLedgerService(c.store, nil, logger), nil
}

func (c *cli) newInitCmd() *cobra.Command {
	var as, address, name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a DAO account",
		RunE: func(cmd *cobra.Command, args []string) error {
			payer, err := parseAddress("as", as)
			if err != nil {
				return err
			}
			var addr uuid.UUID
			if address != "" {
				if addr, err = parseAddress("address", address); err != nil {
					return err
				}
			}

			ledger, err := c.ledger(cmd.Context())
			if err != nil {
				return err
			}
			dao, err := ledger.Initialize(cmd.Context(), ports.InitializeInput{Payer: payer, Address: addr, Name: name})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dao)
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "Identity of the payer")
	cmd.Flags().StringVar(&address, "address", "", "DAO address (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "DAO name")
	cmd.MarkFlagRequired("as")
	cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) newProposeCmd() *cobra.Command {
	var as, dao, title, description string

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Create a proposal under a DAO",
		RunE: func(cmd *cobra.Command, args []string) error {
			payer, err := parseAddress("as", as)
			if err != nil {
				return err
			}
			daoAddr, err := parseAddress("dao", dao)
			if err != nil {
				return err
			}

			ledger, err := c.ledger(cmd.Context())
			if err != nil {
				return err
			}
			proposal, err := ledger.CreateProposal(cmd.Context(), ports.CreateProposalInput{
				Payer:       payer,
				Dao:         daoAddr,
				Title:       title,
				Description: description,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), proposal)
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "Identity of the payer")
	cmd.Flags().StringVar(&dao, "dao", "", "DAO address")
	cmd.Flags().StringVar(&title, "title", "", "Proposal title")
	cmd.Flags().StringVar(&description, "description", "", "Proposal description")
	cmd.MarkFlagRequired("as")
	cmd.MarkFlagRequired("dao")
	cmd.MarkFlagRequired("title")
	return cmd
}

func (c *cli) newVoteCmd() *cobra.Command {
	var as, proposal, dao string
	var yes, no bool

	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast a vote on a proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			voter, err := parseAddress("as", as)
			if err != nil {
				return err
			}
			proposalAddr, err := parseAddress("proposal", proposal)
			if err != nil {
				return err
			}
			var daoAddr uuid.UUID
			if dao != "" {
				if daoAddr, err = parseAddress("dao", dao); err != nil {
					return err
				}
			}

			ledger, err := c.ledger(cmd.Context())
			if err != nil {
				return err
			}
			err = ledger.Vote(cmd.Context(), ports.VoteInput{
				Proposal: proposalAddr,
				Dao:      daoAddr,
				Voter:    voter,
				Choice:   yes,
			})
			if err != nil {
				return err
			}

			p, err := ledger.GetProposal(cmd.Context(), proposalAddr)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "Identity of the voter")
	cmd.Flags().StringVar(&proposal, "proposal", "", "Proposal address")
	cmd.Flags().StringVar(&dao, "dao", "", "DAO the proposal must belong to")
	cmd.Flags().BoolVar(&yes, "yes", false, "Vote in favour")
	cmd.Flags().BoolVar(&no, "no", false, "Vote against")
	cmd.MarkFlagRequired("as")
	cmd.MarkFlagRequired("proposal")
	cmd.MarkFlagsMutuallyExclusive("yes", "no")
	cmd.MarkFlagsOneRequired("yes", "no")
	return cmd
}

func (c *cli) newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print ledger accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dao <address>",
		Short: "Print a DAO account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress("address", args[0])
			if err != nil {
				return err
			}
			ledger, err := c.ledger(cmd.Context())
			if err != nil {
				return err
			}
			dao, err := ledger.GetDao(cmd.Context(), address)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dao)
		},
	})

	var proposalDao, proposalTitle string
	proposalCmd := &cobra.Command{
		Use:   "proposal [address]",
		Short: "Print a proposal by address, or by --dao and --title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := c.ledger(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				address, err := parseAddress("address", args[0])
				if err != nil {
					return err
				}
				proposal, err := ledger.GetProposal(cmd.Context(), address)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), proposal)
			}

			dao, err := parseAddress("dao", proposalDao)
			if err != nil {
				return err
			}
			proposal, err := ledger.GetProposalByTitle(cmd.Context(), dao, proposalTitle)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), proposal)
		},
	}
	proposalCmd.Flags().StringVar(&proposalDao, "dao", "", "DAO address")
	proposalCmd.Flags().StringVar(&proposalTitle, "title", "", "Proposal title")
	proposalCmd.MarkFlagsRequiredTogether("dao", "title")
	cmd.AddCommand(proposalCmd)

	var listDao string
	var page int
	proposalsCmd := &cobra.Command{
		Use:   "proposals",
		Short: "List the proposals of a DAO",
		RunE: func(cmd *cobra.Command, args []string) error {
			dao, err := parseAddress("dao", listDao)
			if err != nil {
				return err
			}
			ledger, err := c.ledger(cmd.Context())
			if err != nil {
				return err
			}
			proposals, err := ledger.ListProposals(cmd.Context(), ports.ListProposalsInput{Dao: dao, Page: page})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), proposals)
		},
	}
	proposalsCmd.Flags().StringVar(&listDao, "dao", "", "DAO address")
	proposalsCmd.Flags().IntVar(&page, "page", 1, "Page number")
	proposalsCmd.MarkFlagRequired("dao")
	cmd.AddCommand(proposalsCmd)

	var voterProposal, voterUser string
	voterCmd := &cobra.Command{
		Use:   "voter",
		Short: "Print a voter record",
		RunE: func(cmd *cobra.Command, args []string) error {
			proposal, err := parseAddress("proposal", voterProposal)
			if err != nil {
				return err
			}
			user, err := parseAddress("user", voterUser)
			if err != nil {
				return err
			}
			ledger, err := c.ledger(cmd.Context())
			if err != nil {
				return err
			}
			voter, err := ledger.GetVoter(cmd.Context(), proposal, user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), voter)
		},
	}
	voterCmd.Flags().StringVar(&voterProposal, "proposal", "", "Proposal address")
	voterCmd.Flags().StringVar(&voterUser, "user", "", "Voter identity")
	voterCmd.MarkFlagRequired("proposal")
	voterCmd.MarkFlagRequired("user")
	cmd.AddCommand(voterCmd)

	var rewardDao, rewardUser string
	rewardCmd := &cobra.Command{
		Use:   "reward",
		Short: "Print a reward account",
		RunE: func(cmd *cobra.Command, args []string) error {
			dao, err := parseAddress("dao", rewardDao)
			if err != nil {
				return err
			}
			user, err := parseAddress("user", rewardUser)
			if err != nil {
				return err
			}
			ledger, err := c.ledger(cmd.Context())
			if err != nil {
				return err
			}
			reward, err := ledger.GetRewardAccount(cmd.Context(), dao, user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), reward)
		},
	}
	rewardCmd.Flags().StringVar(&rewardDao, "dao", "", "DAO address")
	rewardCmd.Flags().StringVar(&rewardUser, "user", "", "User identity")
	rewardCmd.MarkFlagRequired("dao")
	rewardCmd.MarkFlagRequired("user")
	cmd.AddCommand(rewardCmd)

	return cmd
}

func (c *cli) newTokenCmd() *cobra.Command {
	var as string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := parseAddress("as", as)
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = c.cfg.Auth.TokenTTL
			}

			token, err := services.NewAuthService(c.cfg.Auth.JWTSecret).IssueToken(identity, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "Identity to issue the token for")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to the configured TTL)")
	cmd.MarkFlagRequired("as")
	return cmd
}

func parseAddress(flag, value string) (uuid.UUID, error) {
	address, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	return address, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
