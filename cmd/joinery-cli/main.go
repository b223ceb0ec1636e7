package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/chimaridata/joinery"
	"github.com/chimaridata/joinery/internal/config"
	"github.com/chimaridata/joinery/internal/ingest"
	"github.com/chimaridata/joinery/internal/interchange"
	"github.com/chimaridata/joinery/internal/logging"
	"github.com/chimaridata/joinery/internal/monitoring"
	"github.com/chimaridata/joinery/internal/store"
	"github.com/chimaridata/joinery/internal/version"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "Joinery Dataset Join Engine CLI (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: joinery-cli [options]\n\n")
	fmt.Fprintf(os.Stderr, "Modes:\n")
	fmt.Fprintf(os.Stderr, "  --ingest FILE\n\t\tRead a .csv, .json or .jsonl file into the store (see --name)\n")
	fmt.Fprintf(os.Stderr, "  --list\n\t\tList stored datasets\n")
	fmt.Fprintf(os.Stderr, "  --show ID\n\t\tPrint schema, provenance and preview rows of a dataset\n")
	fmt.Fprintf(os.Stderr, "  --join ID\n\t\tJoin the base dataset ID with the --with targets and store the result\n")
	fmt.Fprintf(os.Stderr, "  --export ID\n\t\tWrite a dataset to an Arrow IPC file (see --out)\n")
	fmt.Fprintf(os.Stderr, "  --import FILE\n\t\tRead an Arrow IPC file into the store (see --name)\n")
	fmt.Fprintf(os.Stderr, "  --delete ID\n\t\tRemove a dataset from the store\n")
	fmt.Fprintf(os.Stderr, "  --demo\n\t\tRun the built-in users/orders demo\n")
	fmt.Fprintf(os.Stderr, "  --benchmark\n\t\tBenchmark joins and concatenation over generated data\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	fmt.Fprintf(os.Stderr, "  --db PATH\n\t\tSQLite database file (default: joinery.db)\n")
	fmt.Fprintf(os.Stderr, "  --config FILE\n\t\tLoad configuration from a JSON or YAML file\n")
	fmt.Fprintf(os.Stderr, "  --name NAME\n\t\tDataset name for --ingest and --import (default: file name)\n")
	fmt.Fprintf(os.Stderr, "  --with ID[,ID...]\n\t\tTarget dataset ids for --join\n")
	fmt.Fprintf(os.Stderr, "  --type TYPE\n\t\tJoin type: inner, left, right or outer (default: left)\n")
	fmt.Fprintf(os.Stderr, "  --keys ID=FIELD[,ID=FIELD...]\n\t\tJoin key field per dataset id\n")
	fmt.Fprintf(os.Stderr, "  --strategy NAME\n\t\tMerge strategy: merge or concat (default: merge)\n")
	fmt.Fprintf(os.Stderr, "  --out FILE\n\t\tOutput path for --export (default: ID.arrow)\n")
	fmt.Fprintf(os.Stderr, "  --rows N\n\t\tNumber of users to generate (default: 1000 for demo, 50000 for benchmark)\n")
}

//nolint:funlen // flag definitions and mode dispatch
func main() {
	// Mode flags
	versionFlag := flag.Bool("v", false, "Print version and exit")
	flag.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	ingestFlag := flag.String("ingest", "", "Ingest a CSV or JSON file into the store")
	listFlag := flag.Bool("list", false, "List stored datasets")
	showFlag := flag.String("show", "", "Show schema, provenance and preview rows of a dataset")
	joinFlag := flag.String("join", "", "Join the given base dataset with the --with targets")
	exportFlag := flag.String("export", "", "Export a dataset to an Arrow IPC file")
	importFlag := flag.String("import", "", "Import an Arrow IPC file into the store")
	deleteFlag := flag.String("delete", "", "Delete a dataset from the store")
	demoFlag := flag.Bool("demo", false, "Run the built-in users/orders demo")
	benchmarkFlag := flag.Bool("benchmark", false, "Benchmark joins and concatenation over generated data")

	// Option flags
	dbFlag := flag.String("db", "joinery.db", "SQLite database file")
	configFlag := flag.String("config", "", "Configuration file (JSON or YAML)")
	nameFlag := flag.String("name", "", "Dataset name for --ingest and --import")
	withFlag := flag.String("with", "", "Comma-separated target dataset ids for --join")
	typeFlag := flag.String("type", "left", "Join type: inner, left, right or outer")
	keysFlag := flag.String("keys", "", "Join key per dataset: ID=FIELD[,ID=FIELD...]")
	strategyFlag := flag.String("strategy", "merge", "Merge strategy: merge or concat")
	outFlag := flag.String("out", "", "Output path for --export")
	rowsFlag := flag.Int("rows", 0, "Number of users to generate (default: 1000 for demo, 50000 for benchmark)")

	// Customize usage message for -h, --help
	//nolint:reassign // Standard Go pattern for customizing flag usage message
	flag.Usage = customUsage

	flag.Parse()

	// Handle version flag
	if *versionFlag {
		fmt.Print(version.Info().String())
		return
	}

	if err := configure(*configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "joinery-cli: %v\n", err)
		os.Exit(1)
	}

	var err error
	switch {
	case *demoFlag:
		err = runDemo(*rowsFlag)
	case *benchmarkFlag:
		err = runBenchmark(*rowsFlag)
	case *ingestFlag != "":
		err = runIngest(*dbFlag, *ingestFlag, *nameFlag)
	case *listFlag:
		err = runList(*dbFlag)
	case *showFlag != "":
		err = runShow(*dbFlag, *showFlag)
	case *joinFlag != "":
		err = runJoin(*dbFlag, *joinFlag, *withFlag, *typeFlag, *keysFlag, *strategyFlag)
	case *exportFlag != "":
		err = runExport(*dbFlag, *exportFlag, *outFlag)
	case *importFlag != "":
		err = runImport(*dbFlag, *importFlag, *nameFlag)
	case *deleteFlag != "":
		err = runDelete(*dbFlag, *deleteFlag)
	default:
		// If no mode is selected, print usage and exit.
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "joinery-cli: %v\n", err)
		os.Exit(1)
	}
}

// configure loads configuration from the named file, or from the
// environment when no file is given, and initialises logging.
func configure(path string) error {
	cfg := config.LoadFromEnv()
	if path != "" {
		fileCfg, err := config.LoadFromFile(path)
		if err != nil {
			return err
		}
		cfg = fileCfg
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	config.SetGlobalConfig(cfg)
	return logging.Configure(cfg.LogFormat, cfg.LogLevel)
}

func runIngest(dbPath, path, name string) error {
	ds, err := readInput(path)
	if err != nil {
		return err
	}
	if name != "" {
		ds.Name = name
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ds); err != nil {
		return err
	}

	fmt.Printf("Ingested %s\n", path)
	fmt.Printf("  id:      %s\n", ds.ID)
	fmt.Printf("  name:    %s\n", ds.Name)
	fmt.Printf("  records: %d\n", ds.RecordCount)
	fmt.Printf("  fields:  %s\n", strings.Join(ds.Schema.Names(), ", "))
	return nil
}

// readInput picks the reader from the file extension.
func readInput(path string) (*joinery.Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ingest.ReadCSVFile(path, ingest.DefaultCSVOptions())
	case ".json", ".jsonl", ".ndjson":
		return ingest.ReadJSONFile(path, ingest.DefaultJSONOptions())
	default:
		return nil, fmt.Errorf("unsupported input format %q, want .csv, .json, .jsonl or .ndjson", ext)
	}
}

func runList(dbPath string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.List()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No datasets stored.")
		return nil
	}

	fmt.Printf("%-36s  %-24s  %8s  %s\n", "ID", "NAME", "RECORDS", "CREATED")
	for _, s := range summaries {
		fmt.Printf("%-36s  %-24s  %8d  %s\n", s.ID, s.Name, s.RecordCount, s.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func runShow(dbPath, id string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	desc, err := st.Describe(id)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", desc.Name, desc.ID)
	fmt.Printf("  %d records, %d fields, stored %s\n",
		desc.RecordCount, desc.Schema.Len(), desc.CreatedAt.Format(time.RFC3339))
	if p := desc.Provenance; p != nil {
		fmt.Printf("  derived by %s", p.MergeStrategy)
		if p.MergeStrategy == joinery.StrategyMerge {
			fmt.Printf(" (%s join)", p.JoinType)
		}
		fmt.Println(" from:")
		for _, src := range p.Sources {
			line := fmt.Sprintf("    %s (%d records, id %s", src.Name, src.RecordCount, src.ID)
			if key, ok := p.JoinKeys[src.ID]; ok {
				line += ", key " + key
			}
			fmt.Println(line + ")")
		}
	}

	fmt.Println("\nFields:")
	for _, name := range desc.Schema.Names() {
		field, _ := desc.Schema.Get(name)
		line := fmt.Sprintf("  %-28s %s", name, field.Type)
		if field.Nullable {
			line += ", nullable"
		}
		if len(field.SampleValues) > 0 {
			line += "  (" + strings.Join(field.SampleValues, ", ") + ")"
		}
		fmt.Println(line)
	}

	if len(desc.Preview) > 0 {
		fmt.Println("\nPreview:")
		printRows(desc.Schema, desc.Preview, len(desc.Preview))
	}
	return nil
}

func runJoin(dbPath, baseID, withIDs, typeName, keysSpec, strategyName string) error {
	if withIDs == "" {
		return errors.New("--join requires --with ID[,ID...]")
	}
	joinType, err := joinery.ParseJoinType(typeName)
	if err != nil {
		return err
	}
	strategy, err := joinery.ParseMergeStrategy(strategyName)
	if err != nil {
		return err
	}
	keys, err := parseKeys(keysSpec)
	if err != nil {
		return err
	}

	cfg := &joinery.JoinConfig{
		JoinWith:      splitIDs(withIDs),
		JoinType:      joinType,
		JoinKeys:      keys,
		MergeStrategy: strategy,
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	result, collector, err := executeJoin(st, cfg, baseID)
	if err != nil {
		return err
	}

	out := result.ResultDataset
	fmt.Println("Join succeeded")
	fmt.Printf("  result:  %s (%s)\n", out.Name, out.ID)
	fmt.Printf("  records: %d\n", result.RecordCount)
	fmt.Printf("  fields:  %s\n", strings.Join(result.JoinedFields, ", "))
	printMetrics(collector)
	return nil
}

// executeJoin resolves the participants from the store, runs the engine
// under the metrics collector, and stores the derived dataset.
func executeJoin(
	st *store.Store, cfg *joinery.JoinConfig, baseID string,
) (*joinery.JoinResult, *monitoring.MetricsCollector, error) {
	base, err := st.Get(baseID)
	if err != nil {
		return nil, nil, err
	}
	targets, err := st.ResolveMany(cfg.JoinWith)
	if err != nil {
		return nil, nil, err
	}

	collector := monitoring.NewMetricsCollector(true)
	var result *joinery.JoinResult
	// The result carries the failure; metrics only observe it.
	_ = collector.RecordDatasetOperation("join", func() (int, error) {
		result = joinery.Join(cfg, base, targets)
		if result.Err != nil {
			return 0, result.Err
		}
		return result.RecordCount, nil
	})
	if !result.Success {
		return result, collector, fmt.Errorf("join failed: %s", result.ErrorMessage())
	}

	if err := st.Save(result.ResultDataset); err != nil {
		return result, collector, err
	}
	return result, collector, nil
}

func runExport(dbPath, id, out string) error {
	if out == "" {
		out = id + ".arrow"
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ds, err := st.Get(id)
	if err != nil {
		return err
	}
	rec, err := interchange.ToRecord(ds)
	if err != nil {
		return err
	}
	defer rec.Release()

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return fmt.Errorf("opening Arrow writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing record batch: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing Arrow writer: %w", err)
	}

	fmt.Printf("Exported '%s' (%d records) to %s\n", ds.Name, ds.RecordCount, out)
	return nil
}

func runImport(dbPath, path, name string) error {
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return fmt.Errorf("opening Arrow reader: %w", err)
	}
	defer r.Close()

	// The IPC file format fixes one schema for every batch, so later
	// batches extend the first dataset's rows.
	var ds *joinery.Dataset
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading record batch: %w", err)
		}
		part, err := interchange.FromRecord(rec, name)
		if err != nil {
			return err
		}
		if ds == nil {
			ds = part
			continue
		}
		ds.Rows = append(ds.Rows, part.Rows...)
		ds.RecordCount += part.RecordCount
	}
	if ds == nil {
		return fmt.Errorf("%s holds no record batches", path)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ds); err != nil {
		return err
	}

	fmt.Printf("Imported '%s': %d records, %d fields (id %s)\n",
		ds.Name, ds.RecordCount, ds.Schema.Len(), ds.ID)
	return nil
}

func runDelete(dbPath, id string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Delete(id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

func runDemo(rows int) error {
	const (
		defaultDemoRows = 1000
		previewRows     = 8
	)
	if rows == 0 {
		rows = defaultDemoRows
	}

	fmt.Println("Joinery demo: users left-joined with orders")
	fmt.Println("===========================================")

	users := demoUsers(rows)
	orders := demoOrders(rows)

	st, err := store.Open(":memory:")
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(users); err != nil {
		return err
	}
	if err := st.Save(orders); err != nil {
		return err
	}
	fmt.Printf("Created %d users and %d orders in an in-memory store\n\n",
		users.RecordCount, orders.RecordCount)

	cfg := &joinery.JoinConfig{
		JoinWith:      []string{orders.ID},
		JoinType:      joinery.LeftJoin,
		JoinKeys:      map[string]string{users.ID: "id", orders.ID: "user_id"},
		MergeStrategy: joinery.StrategyMerge,
	}
	result, collector, err := executeJoin(st, cfg, users.ID)
	if err != nil {
		return err
	}

	out := result.ResultDataset
	fmt.Printf("Join produced '%s': %d records, %d fields\n\n", out.Name, out.RecordCount, out.Schema.Len())
	printRows(out.Schema, out.Rows, previewRows)
	fmt.Println()
	printMetrics(collector)

	summaries, err := st.List()
	if err != nil {
		return err
	}
	fmt.Println("\nStored datasets:")
	for _, s := range summaries {
		fmt.Printf("  %-24s %8d records  %s\n", s.Name, s.RecordCount, s.ID)
	}
	return nil
}

func runBenchmark(rows int) error {
	const (
		defaultBenchmarkRows = 50_000
		benchmarkIterations  = 5
	)
	if rows == 0 {
		rows = defaultBenchmarkRows
	}

	fmt.Println("Joinery benchmark: joins and concatenation over generated data")
	fmt.Printf("%d users, %d orders, %d iterations per scenario\n\n",
		rows, rows*2, benchmarkIterations)

	users := demoUsers(rows)
	orders := demoOrders(rows)
	moreUsers := demoUsers(rows)
	moreUsers.ID = "demo-users-2"

	suite := monitoring.NewBenchmarkSuite()
	addJoin := func(name, description string, joinType joinery.JoinType) {
		cfg := &joinery.JoinConfig{
			JoinWith:      []string{orders.ID},
			JoinType:      joinType,
			JoinKeys:      map[string]string{users.ID: "id", orders.ID: "user_id"},
			MergeStrategy: joinery.StrategyMerge,
		}
		suite.AddScenario(monitoring.BenchmarkScenario{
			Name:        name,
			Description: description,
			DataSize:    rows,
			Operation:   benchmarkOp(cfg, users, map[string]*joinery.Dataset{orders.ID: orders}),
			Iterations:  benchmarkIterations,
		})
	}
	addJoin("inner_join", "Inner join of users and orders", joinery.InnerJoin)
	addJoin("left_join", "Left join of users and orders", joinery.LeftJoin)
	addJoin("outer_join", "Full outer join of users and orders", joinery.FullOuterJoin)

	concatCfg := &joinery.JoinConfig{
		JoinWith:      []string{moreUsers.ID},
		MergeStrategy: joinery.StrategyConcat,
	}
	suite.AddScenario(monitoring.BenchmarkScenario{
		Name:        "concat",
		Description: "Concatenation of two user batches",
		DataSize:    rows,
		Operation:   benchmarkOp(concatCfg, users, map[string]*joinery.Dataset{moreUsers.ID: moreUsers}),
		Iterations:  benchmarkIterations,
	})

	suite.Run()
	fmt.Print(suite.GenerateReport())
	return nil
}

// benchmarkOp wraps one engine run as a benchmark operation.
func benchmarkOp(cfg *joinery.JoinConfig, base *joinery.Dataset, targets map[string]*joinery.Dataset) func() error {
	return func() error {
		result := joinery.Join(cfg, base, targets)
		if result.Err != nil {
			return result.Err
		}
		return nil
	}
}

func demoUsers(count int) *joinery.Dataset {
	schema := joinery.NewSchema()
	schema.Set("id", joinery.Field{Type: joinery.TypeNumber})
	schema.Set("name", joinery.Field{Type: joinery.TypeText})
	schema.Set("department", joinery.Field{Type: joinery.TypeText})
	schema.Set("signed_up", joinery.Field{Type: joinery.TypeDate})

	depts := []string{"Engineering", "Sales", "Marketing", "HR", "Finance"}
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := make([]joinery.Row, count)
	for i := range rows {
		rows[i] = joinery.Row{
			"id":         joinery.Number(float64(i + 1)),
			"name":       joinery.Text(fmt.Sprintf("User_%d", i+1)),
			"department": joinery.Text(depts[i%len(depts)]),
			"signed_up":  joinery.Date(start.AddDate(0, 0, i%365)),
		}
	}
	return joinery.NewDataset("demo-users", "users", schema, rows)
}

// demoOrders writes two orders per user. Orders for user ids divisible
// by five are redirected past the user range, so a fifth of the users
// have no orders and a fifth of the orders match no user.
func demoOrders(userCount int) *joinery.Dataset {
	schema := joinery.NewSchema()
	schema.Set("order_id", joinery.Field{Type: joinery.TypeNumber})
	schema.Set("user_id", joinery.Field{Type: joinery.TypeNumber})
	schema.Set("amount", joinery.Field{Type: joinery.TypeNumber, Nullable: true})
	schema.Set("status", joinery.Field{Type: joinery.TypeText})

	statuses := []string{"shipped", "pending", "returned"}
	rows := make([]joinery.Row, userCount*2)
	for i := range rows {
		uid := i%userCount + 1
		if uid%5 == 0 {
			uid += userCount
		}
		amount := joinery.Number(float64(20 + (i%40)*5))
		if i%7 == 6 {
			amount = joinery.Null
		}
		rows[i] = joinery.Row{
			"order_id": joinery.Number(float64(10000 + i)),
			"user_id":  joinery.Number(float64(uid)),
			"amount":   amount,
			"status":   joinery.Text(statuses[i%len(statuses)]),
		}
	}
	return joinery.NewDataset("demo-orders", "orders", schema, rows)
}

// printRows renders up to limit rows as an aligned table.
func printRows(schema *joinery.Schema, rows []joinery.Row, limit int) {
	names := schema.Names()
	shown := rows
	if len(shown) > limit {
		shown = shown[:limit]
	}

	widths := make([]int, len(names))
	for j, name := range names {
		widths[j] = len(name)
	}
	cells := make([][]string, len(shown))
	for i, row := range shown {
		cells[i] = make([]string, len(names))
		for j, name := range names {
			s := row.Get(name).String()
			cells[i][j] = s
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
	}

	line := make([]string, len(names))
	for j, name := range names {
		line[j] = fmt.Sprintf("%-*s", widths[j], name)
	}
	fmt.Println(strings.TrimRight(strings.Join(line, "  "), " "))
	for _, row := range cells {
		for j, cell := range row {
			line[j] = fmt.Sprintf("%-*s", widths[j], cell)
		}
		fmt.Println(strings.TrimRight(strings.Join(line, "  "), " "))
	}
	if len(rows) > limit {
		fmt.Printf("... %d more rows\n", len(rows)-limit)
	}
}

func printMetrics(c *monitoring.MetricsCollector) {
	fmt.Println("  metrics:")
	for _, m := range c.GetMetrics() {
		fmt.Printf("    %-8s %12v  %d rows\n", m.Operation, m.Duration, m.RowsProcessed)
	}
}

// splitIDs splits a comma-separated id list, dropping empty entries.
func splitIDs(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseKeys parses "ID=FIELD,ID=FIELD" into the join key mapping.
func parseKeys(arg string) (map[string]string, error) {
	keys := make(map[string]string)
	if arg == "" {
		return keys, nil
	}
	for _, pair := range strings.Split(arg, ",") {
		id, field, ok := strings.Cut(pair, "=")
		id, field = strings.TrimSpace(id), strings.TrimSpace(field)
		if !ok || id == "" || field == "" {
			return nil, fmt.Errorf("bad --keys entry %q, want ID=FIELD", pair)
		}
		keys[id] = field
	}
	return keys, nil
}
