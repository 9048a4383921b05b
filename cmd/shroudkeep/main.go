package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shroudkeep/shroudkeep/internal/automation"
	"github.com/shroudkeep/shroudkeep/internal/backup"
	"github.com/shroudkeep/shroudkeep/internal/events"
	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/repository"
	"github.com/shroudkeep/shroudkeep/internal/saves"
	"github.com/shroudkeep/shroudkeep/internal/secrets"
	"github.com/shroudkeep/shroudkeep/internal/server"
	"github.com/shroudkeep/shroudkeep/internal/system"
	"github.com/shroudkeep/shroudkeep/internal/transfer"
	"github.com/shroudkeep/shroudkeep/internal/worldname"
	"github.com/shroudkeep/shroudkeep/pkg/config"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the services every command needs
type app struct {
	cfg         *config.Config
	profiles    *repository.ProfileRepository
	automation  *repository.AutomationRepository
	credentials secrets.CredentialService
	checker     *system.Checker
	bus         *events.Bus
}

func newApp() (*app, error) {
	cfg := config.Load()

	logger.SetDefault(logger.NewLogger(logger.ParseLevel(cfg.LogLevel), os.Stderr, cfg.LogJSON))

	if err := repository.InitDB(cfg); err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		profiles:    repository.NewProfileRepository(repository.DB),
		automation:  repository.NewAutomationRepository(repository.DB),
		credentials: secrets.NewKeyringService(),
		checker:     system.NewChecker(cfg.GameProcessName),
		bus:         events.NewBus(),
	}, nil
}

func (a *app) backupService() *backup.Service {
	return backup.NewService(backup.Options{
		BackupRoot:       a.cfg.BackupRoot,
		ZipEnabled:       a.cfg.BackupZipEnabled,
		KeepUncompressed: a.cfg.BackupKeepUncompressed,
	}, a.bus)
}

func (a *app) resolver() *worldname.Resolver {
	return worldname.NewResolver(a.cfg.WorldNameMappingPath, a.cfg.UserWorldNameMappingPath)
}

// clientForProfile resolves a named profile and its stored password into a
// connected transport client.
func (a *app) clientForProfile(name string) (*models.Profile, remote.Client, error) {
	profile, err := a.profiles.FindByName(name)
	if err != nil {
		return nil, nil, fmt.Errorf("profile %q not found", name)
	}

	password, err := a.credentials.GetPassword(profile.ID, profile.Username)
	if err != nil {
		return nil, nil, err
	}

	client, err := remote.NewClient(*profile, password)
	if err != nil {
		return nil, nil, err
	}
	return profile, client, nil
}

func (a *app) requireLocalWriteAccess() error {
	if !a.checker.CanWriteLocalSaveFiles() {
		return fmt.Errorf("the game is running; close it before changing local save files")
	}
	return nil
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Minute)
}

var rootCmd = &cobra.Command{
	Use:   "shroudkeep",
	Short: "Manage Enshrouded save slots, server worlds and backups",
}

// scan command

var scanRoot string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan local singleplayer save slots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		root := scanRoot
		if root == "" {
			root = a.cfg.SingleplayerRoot
		}

		scanner := saves.NewScanner(saves.NewIndexService(), a.resolver())
		result := scanner.ScanSingleplayer(root)

		fmt.Printf("Save root: %s\n\n", result.Root)
		if len(result.Slots) == 0 {
			fmt.Println("No populated save slots found.")
		}
		for _, slot := range result.Slots {
			name := slot.DisplayName
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("Slot %2d  %s  %-30s latest=%s  rolls=%d  size=%s\n",
				slot.SlotNumber, slot.WorldIDHex, name,
				latestLabel(slot.Latest), countExisting(slot.Rolls), formatBytes(slot.TotalSizeBytes))
		}
		for _, warning := range result.Warnings {
			fmt.Printf("Warning: %s\n", warning)
		}
		return nil
	},
}

// server commands

var (
	serverProfile string
	serverPath    string
	serverRoll    int
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Inspect and update the dedicated server world",
}

var serverScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the server world's rolls and current index",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		profile, client, err := a.clientForProfile(serverProfile)
		if err != nil {
			return err
		}
		defer client.Close()

		root := serverPath
		if root == "" {
			root = profile.RemotePath
		}

		ctx, cancel := opContext()
		defer cancel()

		result, err := server.NewWorldService(client).Scan(ctx, root)
		if err != nil {
			return err
		}

		fmt.Printf("Server world %s at %s\n\n", result.WorldIDHex, result.RemoteRoot)
		for _, roll := range result.Rolls {
			if !roll.Exists {
				continue
			}
			fmt.Printf("Roll %d  %s  %s\n", roll.RollIndex, formatBytes(roll.SizeBytes), modifiedLabel(roll.ModifiedAt))
		}
		fmt.Printf("\nLatest roll: %s\n", latestLabel(result.Latest))
		for _, warning := range result.Warnings {
			fmt.Printf("Warning: %s\n", warning)
		}
		return nil
	},
}

var serverSetLatestCmd = &cobra.Command{
	Use:   "set-latest",
	Short: "Point the server world's index at a roll",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		profile, client, err := a.clientForProfile(serverProfile)
		if err != nil {
			return err
		}
		defer client.Close()

		root := serverPath
		if root == "" {
			root = profile.RemotePath
		}

		ctx, cancel := opContext()
		defer cancel()

		if err := server.NewWorldService(client).WriteLatest(ctx, root, serverRoll); err != nil {
			return err
		}
		fmt.Printf("Server index now points at roll %d\n", serverRoll)
		return nil
	},
}

// transfer commands

var (
	transferFromSlot int
	transferFromRoll int
	transferToSlot   int
	transferToRoll   int
	transferProfile  string
	transferPath     string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Copy save rolls between slots and the server world",
}

func runTransfer(client remote.Client, plan transfer.Plan) error {
	ctx, cancel := opContext()
	defer cancel()

	result, err := transfer.NewExecutor(nil).Execute(ctx, client, plan, func(percent int, stage string) {
		fmt.Printf("[%3d%%] %s\n", percent, stage)
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", result.Message, formatBytes(result.BytesCopied))
	return nil
}

var transferSlotCmd = &cobra.Command{
	Use:   "slot",
	Short: "Copy a roll from one local slot onto another",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireLocalWriteAccess(); err != nil {
			return err
		}

		plan, err := transfer.PlanSlotToSlot(a.cfg.SingleplayerRoot, transferFromSlot, transferFromRoll, transferToSlot, transferToRoll)
		if err != nil {
			return err
		}
		return runTransfer(nil, plan)
	},
}

var transferUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a local slot roll to the server world",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		profile, client, err := a.clientForProfile(transferProfile)
		if err != nil {
			return err
		}
		defer client.Close()

		root := transferPath
		if root == "" {
			root = profile.RemotePath
		}

		plan, err := transfer.PlanSlotToServer(a.cfg.SingleplayerRoot, transferFromSlot, transferFromRoll, root, transferToRoll)
		if err != nil {
			return err
		}
		return runTransfer(client, plan)
	},
}

var transferDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a server world roll into a local slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireLocalWriteAccess(); err != nil {
			return err
		}

		profile, client, err := a.clientForProfile(transferProfile)
		if err != nil {
			return err
		}
		defer client.Close()

		root := transferPath
		if root == "" {
			root = profile.RemotePath
		}

		plan, err := transfer.PlanServerToSlot(root, transferFromRoll, a.cfg.SingleplayerRoot, transferToSlot, transferToRoll)
		if err != nil {
			return err
		}
		return runTransfer(client, plan)
	},
}

// backup commands

var (
	backupSlotNumber int
	backupProfile    string
	backupPath       string
	backupKeep       int
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create snapshots of local slots or the server world",
}

var backupSlotCmd = &cobra.Command{
	Use:   "slot",
	Short: "Snapshot a local save slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		result, err := a.backupService().BackupSlot(a.cfg.SingleplayerRoot, backupSlotNumber)
		if err != nil {
			return err
		}
		fmt.Printf("Backed up %d files (%s) to %s\n", result.Files, formatBytes(result.Bytes), result.Path)
		return nil
	},
}

var backupServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Snapshot the server world",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		profile, client, err := a.clientForProfile(backupProfile)
		if err != nil {
			return err
		}
		defer client.Close()

		root := backupPath
		if root == "" {
			root = profile.RemotePath
		}

		ctx, cancel := opContext()
		defer cancel()

		service := a.backupService()
		result, err := service.BackupServerWorld(ctx, client, root, profile.Name)
		if err != nil {
			return err
		}
		fmt.Printf("Backed up %d files (%s) to %s\n", result.Files, formatBytes(result.Bytes), result.Path)

		if backupKeep > 0 {
			removed, err := service.PruneServerBackups(profile.Name, backupKeep)
			if err != nil {
				return err
			}
			if removed > 0 {
				fmt.Printf("Pruned %d old snapshots\n", removed)
			}
		}
		return nil
	},
}

// profile commands

var (
	profileName     string
	profileProtocol string
	profileHost     string
	profilePort     int
	profileUser     string
	profileRemote   string
	profilePassive  bool
	profileVerify   bool
	profilePassword string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage connection profiles",
}

var profileAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a connection profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		protocol, ok := models.ParseProtocol(profileProtocol)
		if !ok {
			return fmt.Errorf("unsupported protocol %q (use ftp, ftps or sftp)", profileProtocol)
		}

		profile := &models.Profile{
			Name:          profileName,
			Protocol:      protocol,
			Host:          profileHost,
			Port:          profilePort,
			Username:      profileUser,
			RemotePath:    profileRemote,
			PassiveMode:   profilePassive,
			VerifyHostKey: profileVerify,
		}
		if err := a.profiles.Create(profile); err != nil {
			return err
		}

		if profilePassword != "" {
			if err := a.credentials.SetPassword(profile.ID, profile.Username, profilePassword); err != nil {
				return err
			}
		}
		fmt.Printf("Profile %q created (id %d)\n", profile.Name, profile.ID)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connection profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		profiles, err := a.profiles.FindAll()
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles configured.")
			return nil
		}
		for _, profile := range profiles {
			fmt.Printf("%-20s %s://%s@%s:%d%s\n", profile.Name, profile.Protocol, profile.Username, profile.Host, profile.Port, profile.RemotePath)
		}
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete a connection profile and its stored password",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		profile, err := a.profiles.FindByName(profileName)
		if err != nil {
			return fmt.Errorf("profile %q not found", profileName)
		}

		if err := a.credentials.DeletePassword(profile.ID, profile.Username); err != nil {
			logger.Warn("CLI: Failed to remove stored password", map[string]interface{}{"error": err.Error()})
		}
		if err := a.profiles.Delete(profile.ID); err != nil {
			return err
		}
		fmt.Printf("Profile %q removed\n", profileName)
		return nil
	},
}

var profileSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the password for a profile in the system keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		profile, err := a.profiles.FindByName(profileName)
		if err != nil {
			return fmt.Errorf("profile %q not found", profileName)
		}
		if profilePassword == "" {
			return fmt.Errorf("--password is required")
		}
		if err := a.credentials.SetPassword(profile.ID, profile.Username, profilePassword); err != nil {
			return err
		}
		fmt.Printf("Password stored for profile %q\n", profileName)
		return nil
	},
}

var profileTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Verify a profile can connect and list its remote path",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		_, client, err := a.clientForProfile(profileName)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), remote.DefaultTimeout)
		defer cancel()

		if err := client.TestConnection(ctx); err != nil {
			return fmt.Errorf("connection test failed: %v", err)
		}
		fmt.Println("Connection OK")
		return nil
	},
}

// job commands

var (
	jobName      string
	jobType      string
	jobProfile   string
	jobHour      int
	jobMinute    int
	jobWeekdays  string
	jobPath      string
	jobSourceDir string
	jobRollMode  string
	jobFixedRoll int
	jobKeep      int
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage automation jobs",
}

var jobAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an automation job",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		var parsedType models.AutomationJobType
		switch jobType {
		case "server-backup":
			parsedType = models.JobTypeServerBackup
		case "scheduled-upload":
			parsedType = models.JobTypeScheduledUpload
		default:
			return fmt.Errorf("unsupported job type %q (use server-backup or scheduled-upload)", jobType)
		}

		if jobHour < 0 || jobHour > 23 || jobMinute < 0 || jobMinute > 59 {
			return fmt.Errorf("schedule must be within 00:00-23:59")
		}

		profile, err := a.profiles.FindByName(jobProfile)
		if err != nil {
			return fmt.Errorf("profile %q not found", jobProfile)
		}

		job := &models.AutomationJob{
			Name:             jobName,
			Enabled:          true,
			JobType:          parsedType,
			ScheduleHour:     jobHour,
			ScheduleMinute:   jobMinute,
			ScheduleWeekdays: jobWeekdays,
			ProfileID:        &profile.ID,
			RemotePath:       jobPath,
			SourceLocalDir:   jobSourceDir,
			UploadRollMode:   models.RollModeLatest,
			KeepLastN:        jobKeep,
		}
		if jobRollMode == "fixed" {
			job.UploadRollMode = models.RollModeFixed
			fixed := jobFixedRoll
			job.UploadFixedRoll = &fixed
		}

		if err := a.automation.CreateJob(job); err != nil {
			return err
		}
		fmt.Printf("Job %q created (id %d)\n", job.Name, job.ID)
		return nil
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List automation jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		jobs, err := a.automation.FindAllJobs()
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No automation jobs configured.")
			return nil
		}
		for _, job := range jobs {
			state := "enabled"
			if !job.Enabled {
				state = "disabled"
			}
			profileLabel := "-"
			if job.Profile != nil {
				profileLabel = job.Profile.Name
			}
			fmt.Printf("%-24s %-17s %02d:%02d [%s] profile=%s %s  last=%s\n",
				job.Name, job.JobType, job.ScheduleHour, job.ScheduleMinute,
				job.ScheduleWeekdays, profileLabel, state, lastRunLabel(&job))
		}
		return nil
	},
}

var jobRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete an automation job and its run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		job, err := a.automation.FindJobByName(jobName)
		if err != nil {
			return fmt.Errorf("job %q not found", jobName)
		}
		if err := a.automation.DeleteJob(job.ID); err != nil {
			return err
		}
		fmt.Printf("Job %q removed\n", jobName)
		return nil
	},
}

var jobRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an automation job immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		job, err := a.automation.FindJobByName(jobName)
		if err != nil {
			return fmt.Errorf("job %q not found", jobName)
		}

		runner := a.newRunner()
		runner.RunJob(job)
		runner.Wait()

		finished, err := a.automation.FindJobByID(job.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Job %q finished: %s (%s)\n", job.Name, finished.LastStatus, finished.LastMessage)
		if finished.LastStatus != models.RunStatusSuccess {
			return fmt.Errorf("job did not succeed")
		}
		return nil
	},
}

func (a *app) newRunner() *automation.Runner {
	executors := map[models.AutomationJobType]automation.JobExecutor{
		models.JobTypeServerBackup:    automation.NewServerBackupExecutor(nil, a.backupService()),
		models.JobTypeScheduledUpload: automation.NewScheduledUploadExecutor(nil),
	}
	return automation.NewRunner(a.automation, a.profiles, a.credentials, executors, a.bus)
}

// run command (scheduler daemon)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the automation scheduler until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		runner := a.newRunner()
		interval := time.Duration(a.cfg.SchedulerIntervalSeconds) * time.Second
		scheduler := automation.NewScheduler(a.automation, interval, runner.RunJobID)

		a.bus.Subscribe(events.JobFinished, func(e events.Event) {
			fmt.Printf("[%s] job %v finished: %v\n", e.Timestamp.Format(time.TimeOnly), e.Payload["job_id"], e.Payload["status"])
		})

		scheduler.Start()
		fmt.Printf("Scheduler running (interval %s). Press Ctrl+C to stop.\n", interval)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		fmt.Println("\nStopping...")
		scheduler.Stop()
		runner.Wait()
		return nil
	},
}

// output helpers

func latestLabel(latest *int) string {
	if latest == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *latest)
}

func modifiedLabel(modified *time.Time) string {
	if modified == nil {
		return "unknown"
	}
	return modified.Local().Format("2006-01-02 15:04")
}

func lastRunLabel(job *models.AutomationJob) string {
	if job.LastRunAt == nil {
		return "never"
	}
	return fmt.Sprintf("%s %s", job.LastRunAt.Local().Format("2006-01-02 15:04"), job.LastStatus)
}

func countExisting(rolls []saves.SaveRoll) int {
	count := 0
	for _, roll := range rolls {
		if roll.Exists {
			count++
		}
	}
	return count
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), strings.ToUpper("kmgtpe")[exp])
}

func init() {
	scanCmd.Flags().StringVar(&scanRoot, "root", "", "override the singleplayer save root")

	serverScanCmd.Flags().StringVar(&serverProfile, "profile", "", "connection profile name")
	serverScanCmd.Flags().StringVar(&serverPath, "path", "", "override the profile's remote path")
	serverScanCmd.MarkFlagRequired("profile")
	serverSetLatestCmd.Flags().StringVar(&serverProfile, "profile", "", "connection profile name")
	serverSetLatestCmd.Flags().StringVar(&serverPath, "path", "", "override the profile's remote path")
	serverSetLatestCmd.Flags().IntVar(&serverRoll, "roll", 0, "roll index (0-9)")
	serverSetLatestCmd.MarkFlagRequired("profile")
	serverSetLatestCmd.MarkFlagRequired("roll")
	serverCmd.AddCommand(serverScanCmd)
	serverCmd.AddCommand(serverSetLatestCmd)

	transferSlotCmd.Flags().IntVar(&transferFromSlot, "from-slot", 0, "source slot (1-10)")
	transferSlotCmd.Flags().IntVar(&transferFromRoll, "from-roll", 0, "source roll (0-9)")
	transferSlotCmd.Flags().IntVar(&transferToSlot, "to-slot", 0, "target slot (1-10)")
	transferSlotCmd.Flags().IntVar(&transferToRoll, "to-roll", 0, "target roll (0-9)")
	transferSlotCmd.MarkFlagRequired("from-slot")
	transferSlotCmd.MarkFlagRequired("to-slot")

	transferUploadCmd.Flags().IntVar(&transferFromSlot, "from-slot", 0, "source slot (1-10)")
	transferUploadCmd.Flags().IntVar(&transferFromRoll, "from-roll", 0, "source roll (0-9)")
	transferUploadCmd.Flags().IntVar(&transferToRoll, "to-roll", 0, "target server roll (0-9)")
	transferUploadCmd.Flags().StringVar(&transferProfile, "profile", "", "connection profile name")
	transferUploadCmd.Flags().StringVar(&transferPath, "path", "", "override the profile's remote path")
	transferUploadCmd.MarkFlagRequired("from-slot")
	transferUploadCmd.MarkFlagRequired("profile")

	transferDownloadCmd.Flags().IntVar(&transferFromRoll, "from-roll", 0, "source server roll (0-9)")
	transferDownloadCmd.Flags().IntVar(&transferToSlot, "to-slot", 0, "target slot (1-10)")
	transferDownloadCmd.Flags().IntVar(&transferToRoll, "to-roll", 0, "target roll (0-9)")
	transferDownloadCmd.Flags().StringVar(&transferProfile, "profile", "", "connection profile name")
	transferDownloadCmd.Flags().StringVar(&transferPath, "path", "", "override the profile's remote path")
	transferDownloadCmd.MarkFlagRequired("to-slot")
	transferDownloadCmd.MarkFlagRequired("profile")

	transferCmd.AddCommand(transferSlotCmd)
	transferCmd.AddCommand(transferUploadCmd)
	transferCmd.AddCommand(transferDownloadCmd)

	backupSlotCmd.Flags().IntVar(&backupSlotNumber, "slot", 0, "slot to back up (1-10)")
	backupSlotCmd.MarkFlagRequired("slot")
	backupServerCmd.Flags().StringVar(&backupProfile, "profile", "", "connection profile name")
	backupServerCmd.Flags().StringVar(&backupPath, "path", "", "override the profile's remote path")
	backupServerCmd.Flags().IntVar(&backupKeep, "keep", 0, "prune to this many snapshots after the backup")
	backupServerCmd.MarkFlagRequired("profile")
	backupCmd.AddCommand(backupSlotCmd)
	backupCmd.AddCommand(backupServerCmd)

	profileAddCmd.Flags().StringVar(&profileName, "name", "", "profile name")
	profileAddCmd.Flags().StringVar(&profileProtocol, "protocol", "sftp", "ftp, ftps or sftp")
	profileAddCmd.Flags().StringVar(&profileHost, "host", "", "server hostname")
	profileAddCmd.Flags().IntVar(&profilePort, "port", 22, "server port")
	profileAddCmd.Flags().StringVar(&profileUser, "user", "", "login user")
	profileAddCmd.Flags().StringVar(&profileRemote, "remote-path", "/", "save directory on the server")
	profileAddCmd.Flags().BoolVar(&profilePassive, "passive", true, "use passive FTP mode")
	profileAddCmd.Flags().BoolVar(&profileVerify, "verify-host-key", false, "verify the SSH host key against known_hosts")
	profileAddCmd.Flags().StringVar(&profilePassword, "password", "", "store this password in the system keyring")
	profileAddCmd.MarkFlagRequired("name")
	profileAddCmd.MarkFlagRequired("host")
	profileAddCmd.MarkFlagRequired("user")

	profileRemoveCmd.Flags().StringVar(&profileName, "name", "", "profile name")
	profileRemoveCmd.MarkFlagRequired("name")
	profileSetPasswordCmd.Flags().StringVar(&profileName, "name", "", "profile name")
	profileSetPasswordCmd.Flags().StringVar(&profilePassword, "password", "", "password to store")
	profileSetPasswordCmd.MarkFlagRequired("name")
	profileTestCmd.Flags().StringVar(&profileName, "name", "", "profile name")
	profileTestCmd.MarkFlagRequired("name")

	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileSetPasswordCmd)
	profileCmd.AddCommand(profileTestCmd)

	jobAddCmd.Flags().StringVar(&jobName, "name", "", "job name")
	jobAddCmd.Flags().StringVar(&jobType, "type", "", "server-backup or scheduled-upload")
	jobAddCmd.Flags().StringVar(&jobProfile, "profile", "", "connection profile name")
	jobAddCmd.Flags().IntVar(&jobHour, "hour", 0, "schedule hour (0-23)")
	jobAddCmd.Flags().IntVar(&jobMinute, "minute", 0, "schedule minute (0-59)")
	jobAddCmd.Flags().StringVar(&jobWeekdays, "weekdays", "*", "weekday mask, * or 0-6 comma separated (0 = Monday)")
	jobAddCmd.Flags().StringVar(&jobPath, "path", "", "override the profile's remote path")
	jobAddCmd.Flags().StringVar(&jobSourceDir, "source-dir", "", "local save directory (scheduled-upload)")
	jobAddCmd.Flags().StringVar(&jobRollMode, "roll-mode", "latest", "latest or fixed (scheduled-upload)")
	jobAddCmd.Flags().IntVar(&jobFixedRoll, "fixed-roll", 0, "roll to upload in fixed mode")
	jobAddCmd.Flags().IntVar(&jobKeep, "keep", 10, "snapshots to keep (server-backup)")
	jobAddCmd.MarkFlagRequired("name")
	jobAddCmd.MarkFlagRequired("type")
	jobAddCmd.MarkFlagRequired("profile")

	jobRemoveCmd.Flags().StringVar(&jobName, "name", "", "job name")
	jobRemoveCmd.MarkFlagRequired("name")
	jobRunCmd.Flags().StringVar(&jobName, "name", "", "job name")
	jobRunCmd.MarkFlagRequired("name")

	jobCmd.AddCommand(jobAddCmd)
	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobRemoveCmd)
	jobCmd.AddCommand(jobRunCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(runCmd)
}
