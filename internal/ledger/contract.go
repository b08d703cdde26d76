package ledger

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// contractABI is the certificate contract interface. The contract is deployed
// and owned out-of-band; this service only needs the issuance, verification
// and revocation surface.
const contractABI = `[
  {
    "type": "function",
    "name": "issueCertificate",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "student", "type": "address"},
      {"name": "studentName", "type": "string"},
      {"name": "studentId", "type": "string"},
      {"name": "courseName", "type": "string"},
      {"name": "courseId", "type": "string"},
      {"name": "projectsHash", "type": "bytes32"},
      {"name": "uri", "type": "string"},
      {"name": "expiresAt", "type": "uint256"}
    ],
    "outputs": [{"name": "tokenId", "type": "uint256"}]
  },
  {
    "type": "function",
    "name": "revokeCertificate",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "tokenId", "type": "uint256"},
      {"name": "reason", "type": "string"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "verifyCertificate",
    "stateMutability": "view",
    "inputs": [{"name": "tokenId", "type": "uint256"}],
    "outputs": [
      {"name": "exists", "type": "bool"},
      {"name": "valid", "type": "bool"},
      {"name": "revoked", "type": "bool"}
    ]
  },
  {
    "type": "function",
    "name": "getCertificate",
    "stateMutability": "view",
    "inputs": [{"name": "tokenId", "type": "uint256"}],
    "outputs": [
      {"name": "student", "type": "address"},
      {"name": "studentName", "type": "string"},
      {"name": "studentId", "type": "string"},
      {"name": "courseName", "type": "string"},
      {"name": "courseId", "type": "string"},
      {"name": "projectsHash", "type": "bytes32"},
      {"name": "uri", "type": "string"},
      {"name": "issuedAt", "type": "uint256"},
      {"name": "expiresAt", "type": "uint256"},
      {"name": "revoked", "type": "bool"}
    ]
  },
  {
    "type": "function",
    "name": "verifyProjects",
    "stateMutability": "view",
    "inputs": [
      {"name": "tokenId", "type": "uint256"},
      {"name": "projectsHash", "type": "bytes32"}
    ],
    "outputs": [{"name": "match", "type": "bool"}]
  },
  {
    "type": "function",
    "name": "getStudentCertificates",
    "stateMutability": "view",
    "inputs": [{"name": "student", "type": "address"}],
    "outputs": [{"name": "tokenIds", "type": "uint256[]"}]
  },
  {
    "type": "function",
    "name": "getCourseCertificates",
    "stateMutability": "view",
    "inputs": [{"name": "courseId", "type": "string"}],
    "outputs": [{"name": "tokenIds", "type": "uint256[]"}]
  },
  {
    "type": "event",
    "name": "CertificateIssued",
    "inputs": [
      {"name": "tokenId", "type": "uint256", "indexed": true},
      {"name": "student", "type": "address", "indexed": true},
      {"name": "courseId", "type": "string", "indexed": false},
      {"name": "projectsHash", "type": "bytes32", "indexed": false}
    ],
    "anonymous": false
  },
  {
    "type": "event",
    "name": "CertificateRevoked",
    "inputs": [
      {"name": "tokenId", "type": "uint256", "indexed": true},
      {"name": "reason", "type": "string", "indexed": false}
    ],
    "anonymous": false
  }
]`

const eventCertificateIssued = "CertificateIssued"

func parseContractABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse certificate contract ABI: %w", err)
	}
	return parsed, nil
}
