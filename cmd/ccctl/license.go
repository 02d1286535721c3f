package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cchttp "ccdepot/contexts/content-licensing/creative-commons-service/transport/http"

	"github.com/spf13/cobra"
)

func (c *cli) newLicenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Inspect and change item licenses",
	}
	cmd.AddCommand(
		c.newLicenseGet(),
		c.newLicenseHas(),
		c.newLicenseSet(),
		c.newLicenseApply(),
		c.newLicenseRemove(),
		c.newLicenseRDF(),
	)
	return cmd
}

func (c *cli) newLicenseGet() *cobra.Command {
	return &cobra.Command{
		Use:   "get ITEM_ID",
		Short: "Print the license status of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := c.requireActor()
			if err != nil {
				return err
			}
			resp, err := c.rt.Licensing.Handler.GetLicenseStatusHandler(cmd.Context(), actor, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func (c *cli) newLicenseHas() *cobra.Command {
	return &cobra.Command{
		Use:   "has ITEM_ID",
		Short: "Print true when the item carries a license",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := c.requireActor()
			if err != nil {
				return err
			}
			resp, err := c.rt.Licensing.Handler.GetLicenseStatusHandler(cmd.Context(), actor, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.HasLicense)
			return err
		},
	}
}

func (c *cli) newLicenseSet() *cobra.Command {
	var mimeType string
	cmd := &cobra.Command{
		Use:   "set ITEM_ID FILE",
		Short: "Store a license document for an item",
		Long: "Store FILE as the item's license. RDF documents (text/xml, text/rdf) are kept as\n" +
			"license_rdf, anything else as license_text. Use - to read standard input.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := c.requireActor()
			if err != nil {
				return err
			}
			var content io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				file, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer file.Close()
				content = file
			}
			if mimeType == "" {
				mimeType = guessMimeType(args[1])
			}
			resp, err := c.rt.Licensing.Handler.SetLicenseHandler(cmd.Context(), actor, args[0], content, mimeType)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&mimeType, "mime", "", "Content type of FILE (guessed from the extension when empty)")
	return cmd
}

func (c *cli) newLicenseApply() *cobra.Command {
	var req cchttp.ApplyLicenseRequest
	cmd := &cobra.Command{
		Use:   "apply ITEM_ID",
		Short: "Record a license URI and name on an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := c.requireActor()
			if err != nil {
				return err
			}
			resp, err := c.rt.Licensing.Handler.ApplyLicenseHandler(cmd.Context(), actor, args[0], req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.LicenseURI, "uri", "", "License URI (required)")
	cmd.Flags().StringVar(&req.LicenseName, "name", "", "License name")
	_ = cmd.MarkFlagRequired("uri")
	return cmd
}

func (c *cli) newLicenseRemove() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ITEM_ID",
		Short: "Remove the license fields and bitstreams of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := c.requireActor()
			if err != nil {
				return err
			}
			resp, err := c.rt.Licensing.Handler.RemoveLicenseHandler(cmd.Context(), actor, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func (c *cli) newLicenseRDF() *cobra.Command {
	return &cobra.Command{
		Use:   "rdf ITEM_ID",
		Short: "Print the stored license RDF of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := c.requireActor()
			if err != nil {
				return err
			}
			resp, err := c.rt.Licensing.Handler.GetLicenseRDFHandler(cmd.Context(), actor, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.LicenseRDF)
			return err
		},
	}
}

func guessMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rdf", ".xml":
		return "text/xml"
	default:
		return "text/plain"
	}
}
