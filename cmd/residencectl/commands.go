package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/comunidad/residence-service/pkg/residenceclient"
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid residence id %q", raw)
	}
	return id, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var p residenceclient.ListParams
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List residences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := opts.client().GetAll(cmd.Context(), p)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&p.Estado, "estado", "", "Filter by status (Disponible, Ocupada, Mantenimiento)")
	cmd.Flags().StringVar(&p.Bloque, "bloque", "", "Filter by block")
	cmd.Flags().StringVar(&p.Search, "search", "", "Substring of unit number or block")
	cmd.Flags().IntVar(&p.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&p.Limit, "limit", 10, "Page size")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one residence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := opts.client().GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		in       residenceclient.CreateResidenceInput
		bloque   string
		estado   string
		occupant int64
		owner    int64
		area     string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a residence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("bloque") {
				in.Bloque = &bloque
			}
			if cmd.Flags().Changed("estado") {
				in.Estado = &estado
			}
			if cmd.Flags().Changed("residente") {
				in.ResidenteActualID = &occupant
			}
			if cmd.Flags().Changed("dueno") {
				in.DuenoID = &owner
			}
			if area != "" {
				d, err := decimal.NewFromString(area)
				if err != nil {
					return fmt.Errorf("invalid --area: %w", err)
				}
				in.AreaM2 = decimal.NewNullDecimal(d)
			}
			res, err := opts.client().Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&in.NumeroUnidad, "unidad", "", "Unit number (required)")
	cmd.Flags().StringVar(&bloque, "bloque", "", "Block")
	cmd.Flags().StringVar(&estado, "estado", "", "Initial status; derived from occupancy when omitted")
	cmd.Flags().Int64Var(&occupant, "residente", 0, "Initial occupant user id")
	cmd.Flags().Int64Var(&owner, "dueno", 0, "Owner user id")
	cmd.Flags().StringVar(&area, "area", "", "Area in square meters")
	_ = cmd.MarkFlagRequired("unidad")
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update <id> --set field=value...",
		Short: "Update residence fields; value null clears a field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch, err := parseSets(sets)
			if err != nil {
				return err
			}
			res, err := opts.client().Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value, repeatable")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

// parseSets reads each value as JSON when it parses as such, otherwise as a
// plain string, so piso=3 sends a number and bloque=B sends a string.
func parseSets(sets []string) (residenceclient.ResidenceUpdate, error) {
	patch := residenceclient.ResidenceUpdate{}
	for _, kv := range sets {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want field=value", kv)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		patch[key] = v
	}
	return patch, nil
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a residence and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.client().Delete(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "residence %d deleted\n", id)
			return err
		},
	}
}

func newAssignCmd(opts *rootOptions) *cobra.Command {
	var (
		occupant   int64
		changeType string
		reason     string
		notes      string
	)
	cmd := &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign a resident to a residence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := residenceclient.AssignResidentInput{ResidenteNuevoID: &occupant, TipoCambio: changeType}
			setOptional(cmd, "motivo", reason, &in.Motivo)
			setOptional(cmd, "notas", notes, &in.Notas)
			res, err := opts.client().AssignResident(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Int64Var(&occupant, "residente", 0, "New occupant user id (required)")
	cmd.Flags().StringVar(&changeType, "tipo", "", "Change type: Asignacion, Cambio or Liberacion")
	cmd.Flags().StringVar(&reason, "motivo", "", "Reason")
	cmd.Flags().StringVar(&notes, "notas", "", "Notes")
	_ = cmd.MarkFlagRequired("residente")
	return cmd
}

func newReleaseCmd(opts *rootOptions) *cobra.Command {
	var reason, notes string
	cmd := &cobra.Command{
		Use:   "release <id>",
		Short: "Release a residence from its occupant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := residenceclient.AssignResidentInput{TipoCambio: "Liberacion"}
			setOptional(cmd, "motivo", reason, &in.Motivo)
			setOptional(cmd, "notas", notes, &in.Notas)
			res, err := opts.client().AssignResident(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&reason, "motivo", "", "Reason")
	cmd.Flags().StringVar(&notes, "notas", "", "Notes")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the reassignment history of a residence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rows, err := opts.client().GetReassignmentHistory(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
}

func setOptional(cmd *cobra.Command, flag, value string, dst **string) {
	if cmd.Flags().Changed(flag) {
		v := value
		*dst = &v
	}
}
