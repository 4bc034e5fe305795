// Package main provides graphctl, an operator CLI that builds, inspects and
// classifies the knowledge graph offline and mints mutation tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appservices "github.com/engmung/portfolio-Nat/application/services"
	domainconfig "github.com/engmung/portfolio-Nat/domain/config"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
	"github.com/engmung/portfolio-Nat/infrastructure/config"
	"github.com/engmung/portfolio-Nat/infrastructure/knowledgeapi"
	"github.com/engmung/portfolio-Nat/pkg/auth"
)

var (
	listingFile string
	storeURL    string
	modeFlag    string
	floorLevels bool
	paletteFile string
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:           "graphctl",
	Short:         "Inspect the knowledge graph offline",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Synthesize the graph and print its nodes, links and stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := buildGraph(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), graphJSON(result))
		}
		printBuild(cmd.OutOrStdout(), result)
		return nil
	},
}

var highlightCmd = &cobra.Command{
	Use:   "highlight <node-id>",
	Short: "Show what hovering a node lights up",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := buildGraph(cmd.Context())
		if err != nil {
			return err
		}
		// an invalid id renders like no hover
		id, _ := valueobjects.NewNodeID(args[0])
		h := domainservices.ComputeHighlight(result.Graph, id)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"hovered": h.Hovered,
				"nodes":   h.NodeIDs(),
				"links":   h.LinkIDs(),
			})
		}
		printHighlight(cmd.OutOrStdout(), result.Graph, h)
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Print the display attributes of every node",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := buildGraph(cmd.Context())
		if err != nil {
			return err
		}
		palette := domainconfig.DefaultPalette()
		if paletteFile != "" {
			if palette, err = config.LoadPalette(paletteFile); err != nil {
				return err
			}
		}
		printClassification(cmd.OutOrStdout(), result.Graph, domainservices.NewClassifier(palette))
		return nil
	},
}

var (
	tokenSecret string
	tokenIssuer string
	tokenUser   string
	tokenRoles  string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the mutation endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := tokenSecret
		if secret == "" {
			secret = os.Getenv("JWT_SECRET")
		}
		var roles []string
		if tokenRoles != "" {
			roles = strings.Split(tokenRoles, ",")
		}
		token, err := auth.IssueToken(auth.JWTConfig{
			SigningMethod: "HS256",
			SecretKey:     secret,
			Issuer:        tokenIssuer,
		}, tokenUser, roles, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{buildCmd, highlightCmd, classifyCmd} {
		c.Flags().StringVarP(&listingFile, "file", "f", "", "listing file (JSON or YAML array of knowledge items)")
		c.Flags().StringVar(&storeURL, "store", "", "knowledge store base URL, used when --file is absent")
		c.Flags().StringVar(&modeFlag, "mode", string(domainconfig.ModeDeterministic), "link synthesis mode (deterministic or legacy)")
		c.Flags().BoolVar(&floorLevels, "floor-levels", false, "clamp levels below 1 up to 1")
	}
	buildCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	highlightCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	classifyCmd.Flags().StringVar(&paletteFile, "palette", "", "palette YAML file")

	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "signing secret (defaults to $JWT_SECRET)")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "portfolio-graph", "token issuer")
	tokenCmd.Flags().StringVar(&tokenUser, "user", "admin", "user ID")
	tokenCmd.Flags().StringVar(&tokenRoles, "roles", "editor", "comma separated roles")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")

	rootCmd.AddCommand(buildCmd, highlightCmd, classifyCmd, tokenCmd)
}

// buildGraph reads the listing from --file or the store and synthesizes it
func buildGraph(ctx context.Context) (*appservices.BuildResult, error) {
	var raws []domainservices.RawItem
	var err error

	switch {
	case listingFile != "":
		raws, err = loadListing(listingFile)
	case storeURL != "":
		client := knowledgeapi.NewClient(knowledgeapi.Config{BaseURL: storeURL}, nil, zap.NewNop())
		raws, err = client.ListItems(ctx)
	default:
		return nil, fmt.Errorf("either --file or --store is required")
	}
	if err != nil {
		return nil, err
	}

	cfg := domainconfig.DefaultDomainConfig()
	cfg.SynthesisMode = domainconfig.ParseSynthesisMode(modeFlag)
	cfg.FloorLevels = floorLevels
	return appservices.NewGraphBuilder(cfg, zap.NewNop()).Build(raws)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, bad.Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}
