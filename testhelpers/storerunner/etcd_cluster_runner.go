package storerunner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	. "github.com/onsi/gomega"
)

// ETCDClusterRunner drives local etcd processes.
type ETCDClusterRunner struct {
	startingPort int
	numNodes     int
	etcdCommands []*exec.Cmd
}

func NewETCDClusterRunner(startingPort int, numNodes int) *ETCDClusterRunner {
	return &ETCDClusterRunner{
		startingPort: startingPort,
		numNodes:     numNodes,
	}
}

// ETCDAvailable reports whether etcd is on the PATH.
func ETCDAvailable() bool {
	_, err := exec.LookPath("etcd")
	return err == nil
}

func (runner *ETCDClusterRunner) Start() {
	runner.etcdCommands = make([]*exec.Cmd, runner.numNodes)

	for i := 0; i < runner.numNodes; i++ {
		os.RemoveAll(runner.tmpPath(i))
		os.MkdirAll(runner.tmpPath(i), 0700)

		runner.etcdCommands[i] = exec.Command("etcd",
			"--name", runner.nodeName(i),
			"--data-dir", runner.tmpPath(i),
			"--listen-client-urls", runner.clientURL(i),
			"--advertise-client-urls", runner.clientURL(i),
			"--listen-peer-urls", runner.peerURL(i),
			"--initial-advertise-peer-urls", runner.peerURL(i),
			"--initial-cluster", runner.initialCluster(),
			"--initial-cluster-state", "new",
			"--log-level", "error",
		)

		err := runner.etcdCommands[i].Start()
		Ω(err).ShouldNot(HaveOccurred(), "Make sure etcd is installed and on your $PATH.")
	}

	for i := 0; i < runner.numNodes; i++ {
		index := i
		Eventually(func() bool {
			return runner.healthy(index)
		}, 10, 0.1).Should(BeTrue(), "Expected etcd to be up and running")
	}
}

func (runner *ETCDClusterRunner) Stop() {
	if runner.etcdCommands == nil {
		return
	}

	for i, cmd := range runner.etcdCommands {
		cmd.Process.Signal(syscall.SIGINT)
		cmd.Wait()
		os.RemoveAll(runner.tmpPath(i))
	}
	runner.etcdCommands = nil
}

func (runner *ETCDClusterRunner) NodeURLs() []string {
	urls := make([]string, runner.numNodes)
	for i := 0; i < runner.numNodes; i++ {
		urls[i] = runner.clientURL(i)
	}
	return urls
}

// Reset deletes every key in the keyspace.
func (runner *ETCDClusterRunner) Reset() {
	client := runner.client()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Delete(ctx, "\x00", clientv3.WithFromKey())
	Ω(err).ShouldNot(HaveOccurred())
}

func (runner *ETCDClusterRunner) client() *clientv3.Client {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   runner.NodeURLs(),
		DialTimeout: 5 * time.Second,
		Logger:      zap.NewNop(),
	})
	Ω(err).ShouldNot(HaveOccurred())
	return client
}

func (runner *ETCDClusterRunner) healthy(index int) bool {
	client := runner.client()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.Status(ctx, runner.clientURL(index))
	return err == nil
}

func (runner *ETCDClusterRunner) initialCluster() string {
	members := make([]string, runner.numNodes)
	for i := 0; i < runner.numNodes; i++ {
		members[i] = runner.nodeName(i) + "=" + runner.peerURL(i)
	}
	return strings.Join(members, ",")
}

func (runner *ETCDClusterRunner) nodeName(index int) string {
	return fmt.Sprintf("node%d", index)
}

func (runner *ETCDClusterRunner) clientURL(index int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", runner.startingPort+index)
}

func (runner *ETCDClusterRunner) peerURL(index int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", runner.startingPort+index+707)
}

func (runner *ETCDClusterRunner) tmpPath(index int) string {
	return fmt.Sprintf("%s/ETCD_%d", os.TempDir(), runner.startingPort+index)
}
