package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/queryir"
	"github.com/roach88/moveng/internal/store"
)

// FindOptions holds flags for archive find.
type FindOptions struct {
	*ArchiveOptions
	Ref         string
	Collections []string
	Movement    string
	Where       []string
	Has         []string
	Present     []string
}

func newArchiveFindCommand(archiveOpts *ArchiveOptions) *cobra.Command {
	opts := &FindOptions{ArchiveOptions: archiveOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find archived records by field values",
		Long: `Find records of an archived snapshot. Every condition must hold.

  --where field=value    a text field equals value
  --has field=value      a list field contains value
  --present field        a field is set (non-empty text or list)

Field names are the snapshot's JSON field names.

Example:
  moveng archive find --collection practices --has involvedEntityIds=ent-council
  moveng archive find --where kind=person --movement mov-lantern
  moveng archive find --collection texts --present parentId --ref 3f2a`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ref, "ref", store.LatestRef, "snapshot reference")
	cmd.Flags().StringSliceVar(&opts.Collections, "collection", nil, "restrict to these collections")
	cmd.Flags().StringVarP(&opts.Movement, "movement", "m", "", "restrict to one movement's records")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "text field condition field=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Has, "has", nil, "list field condition field=value (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Present, "present", nil, "fields that must be set")

	return cmd
}

func runFind(opts *FindOptions, cmd *cobra.Command) error {
	q, err := opts.query()
	if err != nil {
		formatter := opts.formatter(cmd)
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
	}

	e, st, err := openArchive(opts.ArchiveOptions, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	matches, err := st.Query(cmd.Context(), opts.Ref, q)
	if err != nil {
		return e.out.Fail(err)
	}

	if e.out.Format == "json" {
		return e.out.Success(matches)
	}
	if len(matches) == 0 {
		fmt.Fprintln(e.out.Writer, "No matching records")
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(e.out.Writer, "%s/%s [%s]", m.Collection.Key(), m.RecordID, m.MovementID)
		if m.Path != "" {
			fmt.Fprintf(e.out.Writer, " %s", m.Path)
		}
		fmt.Fprintln(e.out.Writer)
	}
	return nil
}

// query builds the record query from the flags. The conditions are
// conjoined in flag order: --where, then --has, then --present.
func (o *FindOptions) query() (queryir.Query, error) {
	q := queryir.Query{MovementID: o.Movement}
	for _, key := range o.Collections {
		c, ok := model.ParseCollection(key)
		if !ok {
			return q, fmt.Errorf("unknown collection %q", key)
		}
		q.Collections = append(q.Collections, c)
	}

	var preds []queryir.Predicate
	for _, cond := range o.Where {
		field, value, err := splitCondition("--where", cond)
		if err != nil {
			return q, err
		}
		preds = append(preds, queryir.Equals{Field: field, Value: value})
	}
	for _, cond := range o.Has {
		field, value, err := splitCondition("--has", cond)
		if err != nil {
			return q, err
		}
		preds = append(preds, queryir.Contains{Field: field, Value: value})
	}
	for _, field := range o.Present {
		preds = append(preds, queryir.Present{Field: field})
	}

	switch len(preds) {
	case 0:
	case 1:
		q.Filter = preds[0]
	default:
		q.Filter = queryir.And{Predicates: preds}
	}
	return q, nil
}

func splitCondition(flag, cond string) (string, string, error) {
	field, value, ok := strings.Cut(cond, "=")
	if !ok || field == "" {
		return "", "", fmt.Errorf("%s %q: want field=value", flag, cond)
	}
	return field, value, nil
}
