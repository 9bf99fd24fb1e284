package credentials_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/gg/internal/credentials"
)

var _ = Describe("Static", func() {
	It("fills in the default username and key", func() {
		home := GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", home)

		s := credentials.NewStatic(credentials.SSH{})
		got, err := s.SSH(context.Background(), "git@github.com:org/repo.git")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Username).To(Equal("git"))
		Expect(got.PrivateKey).To(Equal(filepath.Join(home, ".ssh", "id_rsa")))
	})

	It("expands a home-relative key path", func() {
		home := GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", home)

		s := credentials.NewStatic(credentials.SSH{PrivateKey: "~/keys/deploy", Username: "deployer"})
		Expect(s.Config.PrivateKey).To(Equal(filepath.Join(home, "keys", "deploy")))
		Expect(s.Config.Username).To(Equal("deployer"))
	})
})

var _ = Describe("SSH.Env", func() {
	It("uses the agent without a key", func() {
		env, err := credentials.SSH{SSHAgent: true, Username: "bob"}.Env()
		Expect(err).NotTo(HaveOccurred())
		Expect(env).To(Equal([]string{"GIT_SSH_COMMAND=ssh -l bob"}))
	})

	It("points ssh at an existing key", func() {
		key := filepath.Join(GinkgoT().TempDir(), "id_test")
		Expect(os.WriteFile(key, []byte("key"), 0o600)).To(Succeed())

		env, err := credentials.SSH{PrivateKey: key}.Env()
		Expect(err).NotTo(HaveOccurred())
		Expect(env).To(Equal([]string{"GIT_SSH_COMMAND=ssh -i " + key + " -o IdentitiesOnly=yes -l git"}))
	})

	It("quotes key paths with spaces", func() {
		key := filepath.Join(GinkgoT().TempDir(), "my key")
		Expect(os.WriteFile(key, []byte("key"), 0o600)).To(Succeed())

		env, err := credentials.SSH{PrivateKey: key, Username: "git"}.Env()
		Expect(err).NotTo(HaveOccurred())
		Expect(env[0]).To(ContainSubstring("-i '" + key + "'"))
	})

	It("fails when the key is missing", func() {
		_, err := credentials.SSH{PrivateKey: "/nonexistent/id_rsa"}.Env()
		Expect(errors.Is(err, credentials.ErrNoKey)).To(BeTrue())
	})
})
