package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/karnika-s/heart-temp-sub000/internal/database"
	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/repository"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db    *sqlx.DB
	users *repository.UserRepo
	svc   *service.Service
	cost  int
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                                                  - apply pending schema migrations")
	fmt.Fprintln(cli.out, "  add-user -email EMAIL [-role ADMIN|USER]                 - create a user or reset its password")
	fmt.Fprintln(cli.out, "  create-pool -course ID -diocese ID [-parish ID] -quantity N - create a license pool")
	fmt.Fprintln(cli.out, "  generate-codes -course ID -count N                       - generate access codes as CSV")
	fmt.Fprintln(cli.out, "  import-codes -course ID -file PATH                       - import access codes from a CSV file")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addUserCmd := flag.NewFlagSet("add-user", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's e-mail. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", model.RoleUser, "ADMIN or USER.")

	poolCmd := flag.NewFlagSet("create-pool", flag.ContinueOnError)
	poolCourse := poolCmd.Uint64("course", 0, "Course id.")
	poolDiocese := poolCmd.Uint64("diocese", 0, "Diocese id.")
	poolParish := poolCmd.Uint64("parish", 0, "Parish id; omit for a diocese-wide pool.")
	poolQty := poolCmd.Int("quantity", -1, "Licenses purchased.")

	genCmd := flag.NewFlagSet("generate-codes", flag.ContinueOnError)
	genCourse := genCmd.Uint64("course", 0, "Course id.")
	genCount := genCmd.Int("count", 0, "Number of codes.")

	importCmd := flag.NewFlagSet("import-codes", flag.ContinueOnError)
	importCourse := importCmd.Uint64("course", 0, "Course id.")
	importFile := importCmd.String("file", "", "CSV file with one code per row.")

	for _, fs := range []*flag.FlagSet{addUserCmd, poolCmd, genCmd, importCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		applied, err := database.Migrate(cli.db)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cli.out, "schema is up to date")
		}
		for _, name := range applied {
			fmt.Fprintf(cli.out, "applied %s\n", name)
		}
		return nil

	case "add-user":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		role := strings.ToUpper(*addUserRole)
		if *addUserEmail == "" || (role != model.RoleAdmin && role != model.RoleUser) {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, *addUserEmail, string(pwd), role)

	case "create-pool":
		if err := poolCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *poolCourse == 0 || *poolDiocese == 0 || *poolQty < 0 {
			poolCmd.Usage()
			return errHelp
		}
		pool, err := cli.svc.CreatePool(ctx, *poolCourse, model.Scope{DioceseID: *poolDiocese, ParishID: *poolParish}, *poolQty)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "pool %d: course %d, %d licenses\n", pool.ID, pool.CourseID, pool.QuantityPurchased)
		return nil

	case "generate-codes":
		if err := genCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *genCourse == 0 || *genCount <= 0 {
			genCmd.Usage()
			return errHelp
		}
		codes, err := cli.svc.GenerateCodes(ctx, *genCourse, *genCount)
		if err != nil {
			return err
		}
		return cli.writeCodes(codes)

	case "import-codes":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importCourse == 0 || *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importCodes(ctx, *importCourse, *importFile)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addUser(ctx context.Context, email, password, role string) error {
	u, err := cli.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, service.ErrNotFound):
		id, err := cli.users.Create(ctx, email, password, role, cli.cost)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "created user %d\n", id)
		return nil
	case err != nil:
		return err
	}
	if err := cli.users.SetPassword(ctx, u.ID, password, role, cli.cost); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "updated user %d\n", u.ID)
	return nil
}

func (cli *commandLine) importCodes(ctx context.Context, courseID uint64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	raw, err := service.ParseCodeList(f)
	if err != nil {
		return err
	}
	codes, err := cli.svc.ImportCodes(ctx, courseID, raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "imported %d codes\n", len(codes))
	return nil
}

func (cli *commandLine) writeCodes(codes []model.AccessCode) error {
	w := csv.NewWriter(cli.out)
	if err := w.Write([]string{"code", "course_id"}); err != nil {
		return err
	}
	for _, c := range codes {
		if err := w.Write([]string{c.Code, strconv.FormatUint(c.CourseID, 10)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
