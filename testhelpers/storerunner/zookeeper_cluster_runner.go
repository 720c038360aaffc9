package storerunner

import (
	"fmt"
	"os"
	"os/exec"
	"path"
	"time"

	"github.com/samuel/go-zookeeper/zk"

	. "github.com/onsi/gomega"
)

// ZookeeperClusterRunner drives local zkServer.sh instances.
// See http://zookeeper.apache.org/doc/current/zookeeperStarted.html
type ZookeeperClusterRunner struct {
	startingPort int
	numNodes     int
	running      bool
}

func NewZookeeperClusterRunner(startingPort int, numNodes int) *ZookeeperClusterRunner {
	return &ZookeeperClusterRunner{
		startingPort: startingPort,
		numNodes:     numNodes,
	}
}

// Available reports whether zkServer.sh is on the PATH.
func Available() bool {
	_, err := exec.LookPath("zkServer.sh")
	return err == nil
}

func (runner *ZookeeperClusterRunner) Start() {
	for i := 0; i < runner.numNodes; i++ {
		runner.nukeArtifacts(i)
		os.MkdirAll(runner.tmpPath(i), 0700)
		runner.writeID(i)
		runner.writeConfig(i)

		cmd := exec.Command("zkServer.sh", "start", runner.configPath(i))
		cmd.Env = append(os.Environ(), "ZOO_LOG_DIR="+runner.tmpPath(i))

		out, err := cmd.Output()
		Ω(err).ShouldNot(HaveOccurred(), "Make sure zookeeper is installed and on your $PATH.")
		Ω(string(out)).Should(ContainSubstring("STARTED"))

		Eventually(func() bool {
			return runner.exists(i)
		}, 3, 0.05).Should(BeTrue(), "Expected Zookeeper to be up and running")
	}
	runner.running = true
}

func (runner *ZookeeperClusterRunner) Stop() {
	if !runner.running {
		return
	}

	for i := 0; i < runner.numNodes; i++ {
		cmd := exec.Command("zkServer.sh", "stop", runner.configPath(i))
		out, err := cmd.Output()

		Ω(err).ShouldNot(HaveOccurred(), "Zookeeper failed to stop!")
		Ω(string(out)).Should(ContainSubstring("STOPPED"))

		runner.nukeArtifacts(i)
	}
	runner.running = false
}

func (runner *ZookeeperClusterRunner) NodeURLs() []string {
	urls := make([]string, runner.numNodes)
	for i := 0; i < runner.numNodes; i++ {
		urls[i] = runner.clientURL(i)
	}
	return urls
}

// Reset deletes everything except ZooKeeper's own /zookeeper tree.
func (runner *ZookeeperClusterRunner) Reset() {
	client, _, err := zk.Connect(runner.NodeURLs(), 5*time.Second)
	Ω(err).ShouldNot(HaveOccurred())
	defer client.Close()

	children, _, err := client.Children("/")
	Ω(err).ShouldNot(HaveOccurred())

	for _, child := range children {
		if child == "zookeeper" {
			continue
		}
		runner.deleteTree(client, "/"+child)
	}
}

func (runner *ZookeeperClusterRunner) deleteTree(client *zk.Conn, key string) {
	children, _, err := client.Children(key)
	if err == zk.ErrNoNode {
		return
	}
	Ω(err).ShouldNot(HaveOccurred())

	for _, child := range children {
		runner.deleteTree(client, path.Join(key, child))
	}

	err = client.Delete(key, -1)
	if err != zk.ErrNoNode {
		Ω(err).ShouldNot(HaveOccurred())
	}
}

func (runner *ZookeeperClusterRunner) writeConfig(index int) {
	config := "tickTime=2000\n"
	config += fmt.Sprintf("dataDir=%s\n", runner.tmpPath(index))
	config += fmt.Sprintf("clientPort=%d\n", runner.clientPort(index))
	config += "admin.enableServer=false\n"

	if runner.numNodes > 1 {
		config += "initLimit=5\n"
		config += "syncLimit=2\n"
		for node := 1; node <= runner.numNodes; node++ {
			config += fmt.Sprintf("server.%d=127.0.0.1:%d:%d\n", node, runner.serverPort(node), runner.electionPort(node))
		}
	}

	err := os.WriteFile(runner.configPath(index), []byte(config), 0700)
	Ω(err).ShouldNot(HaveOccurred())
}

func (runner *ZookeeperClusterRunner) writeID(index int) {
	err := os.WriteFile(runner.tmpPathTo("myid", index), []byte(fmt.Sprintf("%d", index+1)), 0700)
	Ω(err).ShouldNot(HaveOccurred())
}

func (runner *ZookeeperClusterRunner) clientURL(index int) string {
	return fmt.Sprintf("127.0.0.1:%d", runner.clientPort(index))
}

func (runner *ZookeeperClusterRunner) clientPort(index int) int {
	return runner.startingPort + index
}

func (runner *ZookeeperClusterRunner) serverPort(index int) int {
	return runner.startingPort + index + 707
}

func (runner *ZookeeperClusterRunner) electionPort(index int) int {
	return runner.startingPort + index + 1707
}

func (runner *ZookeeperClusterRunner) tmpPath(index int) string {
	return fmt.Sprintf("%s/ZOOKEEPER_%d", os.TempDir(), runner.clientPort(index))
}

func (runner *ZookeeperClusterRunner) configPath(index int) string {
	return runner.tmpPath(index) + ".conf"
}

func (runner *ZookeeperClusterRunner) tmpPathTo(subdir string, index int) string {
	return path.Join(runner.tmpPath(index), subdir)
}

func (runner *ZookeeperClusterRunner) nukeArtifacts(index int) {
	os.RemoveAll(runner.tmpPath(index))
	os.Remove(runner.configPath(index))
}

func (runner *ZookeeperClusterRunner) exists(index int) bool {
	_, err := os.Stat(runner.tmpPathTo("zookeeper_server.pid", index))
	return err == nil
}
