// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/entry"
)

type entryFlags struct {
	model          string
	area           string
	vin            string
	defectType     string
	quantity       int
	operator       string
	date           string
	start          string
	end            string
	section        string
	releaseNote    string
	reinspection   bool
	allowDuplicate bool
}

func (f *entryFlags) register(cmd *cobra.Command, withDefect bool) {
	cmd.Flags().StringVar(&f.model, "model", "", "vehicle model (EQE, SA2, HA2)")
	cmd.Flags().StringVar(&f.area, "area", "", "work area (defaults to the configured area)")
	cmd.Flags().StringVar(&f.vin, "vin", "", "vehicle identification number")
	cmd.Flags().IntVar(&f.quantity, "quantity", 1, "number of units")
	cmd.Flags().StringVar(&f.operator, "operator", "", "operator badge id")
	cmd.Flags().StringVar(&f.date, "date", time.Now().Format("2006-01-02"), "entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.start, "start", "", "slot start time (HH:MM)")
	cmd.Flags().StringVar(&f.end, "end", "", "slot end time (HH:MM)")
	cmd.Flags().StringVar(&f.section, "section", "", "acting section, where the area has them")
	cmd.Flags().StringVar(&f.releaseNote, "release-note", "", "release note for offline inspection approvals")
	cmd.Flags().BoolVar(&f.reinspection, "reinspection", false, "mark as a reinspection")
	cmd.Flags().BoolVar(&f.allowDuplicate, "allow-duplicate", false, "skip the duplicate entry check")
	if withDefect {
		cmd.Flags().StringVar(&f.defectType, "defect-type", "", "defect description")
	}
}

func (f *entryFlags) toInput(kind domain.RecordKind) (entry.InspectionInput, error) {
	area, err := resolveArea(f.area)
	if err != nil {
		return entry.InspectionInput{}, err
	}
	if area == domain.AreaAll {
		return entry.InspectionInput{}, errors.New("a concrete work area is required")
	}
	return entry.InspectionInput{
		Kind:           kind,
		Model:          domain.CarModel(f.model),
		Area:           area,
		VIN:            f.vin,
		DefectType:     f.defectType,
		Quantity:       f.quantity,
		OperatorID:     resolveOperator(f.operator),
		EntryDate:      f.date,
		StartTime:      f.start,
		EndTime:        f.end,
		ActingSection:  f.section,
		ReleaseNote:    f.releaseNote,
		IsReinspection: f.reinspection,
	}, nil
}

func newAddCmd() *cobra.Command {
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a new entry",
	}

	var passFlags entryFlags
	pass := &cobra.Command{
		Use:   "pass",
		Short: "Record an approved vehicle",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := passFlags.toInput(domain.KindPass)
			if err != nil {
				return err
			}
			rec, err := entry.BuildPass(in, time.Now())
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if !passFlags.allowDuplicate {
				existing, err := store.ListPassRecords()
				if err != nil {
					return err
				}
				if err := entry.CheckDuplicatePass(rec, existing, uuid.Nil); err != nil {
					return fmt.Errorf("%w (use --allow-duplicate to record anyway)", err)
				}
			}

			if err := store.InsertPassRecord(rec); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		},
	}
	passFlags.register(pass, false)

	var defectFlags entryFlags
	defect := &cobra.Command{
		Use:   "defect",
		Short: "Record a defect",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := defectFlags.toInput(domain.KindDefect)
			if err != nil {
				return err
			}
			rec, err := entry.BuildDefect(in, time.Now())
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if !defectFlags.allowDuplicate {
				existing, err := store.ListDefectRecords()
				if err != nil {
					return err
				}
				if err := entry.CheckDuplicateDefect(rec, existing, uuid.Nil); err != nil {
					return fmt.Errorf("%w (use --allow-duplicate to record anyway)", err)
				}
			}

			if err := store.InsertDefectRecord(rec); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		},
	}
	defectFlags.register(defect, true)

	var dtArea, dtStart, dtEnd, dtReason, dtOperator string
	downtime := &cobra.Command{
		Use:   "downtime",
		Short: "Record a line stoppage",
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := resolveArea(dtArea)
			if err != nil {
				return err
			}
			if area == domain.AreaAll {
				return errors.New("a concrete work area is required")
			}
			rec, err := entry.BuildDowntime(entry.DowntimeInput{
				Area:       area,
				StartTime:  dtStart,
				EndTime:    dtEnd,
				Reason:     dtReason,
				OperatorID: resolveOperator(dtOperator),
			}, time.Now())
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InsertDowntimeRecord(rec); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		},
	}
	downtime.Flags().StringVar(&dtArea, "area", "", "work area (defaults to the configured area)")
	downtime.Flags().StringVar(&dtStart, "start", "", "stoppage start time (HH:MM)")
	downtime.Flags().StringVar(&dtEnd, "end", "", "stoppage end time (HH:MM)")
	downtime.Flags().StringVar(&dtReason, "reason", "", "stoppage reason")
	downtime.Flags().StringVar(&dtOperator, "operator", "", "operator badge id")

	add.AddCommand(pass, defect, downtime)
	return add
}

func newListCmd() *cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored records as JSON",
	}

	printJSON := func(cmd *cobra.Command, v any) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	list.AddCommand(
		&cobra.Command{
			Use:   "pass",
			Short: "List approved vehicle records",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore()
				if err != nil {
					return err
				}
				defer store.Close()
				records, err := store.ListPassRecords()
				if err != nil {
					return err
				}
				return printJSON(cmd, records)
			},
		},
		&cobra.Command{
			Use:   "defects",
			Short: "List defect records",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore()
				if err != nil {
					return err
				}
				defer store.Close()
				records, err := store.ListDefectRecords()
				if err != nil {
					return err
				}
				return printJSON(cmd, records)
			},
		},
		&cobra.Command{
			Use:   "downtime",
			Short: "List line stoppage records",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore()
				if err != nil {
					return err
				}
				defer store.Close()
				records, err := store.ListDowntimeRecords()
				if err != nil {
					return err
				}
				return printJSON(cmd, records)
			},
		},
	)

	return list
}

func newRemoveCmd() *cobra.Command {
	remove := &cobra.Command{
		Use:   "remove",
		Short: "Delete a record by id",
	}

	removeFrom := func(use string, del func(*cobra.Command, uuid.UUID) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: "Delete a " + use + " record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid record id %q", args[0])
				}
				return del(cmd, id)
			},
		}
	}

	remove.AddCommand(
		removeFrom("pass", func(cmd *cobra.Command, id uuid.UUID) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.DeletePassRecord(id)
		}),
		removeFrom("defect", func(cmd *cobra.Command, id uuid.UUID) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.DeleteDefectRecord(id)
		}),
		removeFrom("downtime", func(cmd *cobra.Command, id uuid.UUID) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.DeleteDowntimeRecord(id)
		}),
	)

	return remove
}

func newClearCmd() *cobra.Command {
	var yes bool
	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.ClearAll(); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "all records cleared")
			return nil
		},
	}
	clear.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return clear
}
